package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Theme string

const (
	ThemeLight  Theme = "Light"
	ThemeDark   Theme = "Dark"
	ThemeSystem Theme = "System"
)

type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email    string             `bson:"email" json:"email"` // always lowercase
	Password string             `bson:"password" json:"-"`  // bcrypt hash, never serialized

	Profile  Profile  `bson:"profile" json:"profile"`
	Settings Settings `bson:"settings" json:"settings"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

type Profile struct {
	Name  string `bson:"name,omitempty" json:"name,omitempty"`
	Title string `bson:"title,omitempty" json:"title,omitempty"`

	Skills     []Skill      `bson:"skills,omitempty" json:"skills,omitempty"`
	Experience []Experience `bson:"experience,omitempty" json:"experience,omitempty"`
	Education  []Education  `bson:"education,omitempty" json:"education,omitempty"`

	Location    *Location    `bson:"location,omitempty" json:"location,omitempty"`
	Preferences *Preferences `bson:"preferences,omitempty" json:"preferences,omitempty"`
}

type Skill struct {
	Name  string `bson:"name" json:"name"`
	Level string `bson:"level,omitempty" json:"level,omitempty"` // Beginner|Intermediate|Advanced|Expert
}

type Experience struct {
	Title       string     `bson:"title,omitempty" json:"title,omitempty"`
	Company     string     `bson:"company,omitempty" json:"company,omitempty"`
	StartDate   *time.Time `bson:"start_date,omitempty" json:"start_date,omitempty"`
	EndDate     *time.Time `bson:"end_date,omitempty" json:"end_date,omitempty"`
	Current     bool       `bson:"current,omitempty" json:"current,omitempty"`
	Description string     `bson:"description,omitempty" json:"description,omitempty"`
}

type Education struct {
	School         string     `bson:"school,omitempty" json:"school,omitempty"`
	Degree         string     `bson:"degree,omitempty" json:"degree,omitempty"`
	Field          string     `bson:"field,omitempty" json:"field,omitempty"`
	GraduationDate *time.Time `bson:"graduation_date,omitempty" json:"graduation_date,omitempty"`
}

type Location struct {
	City    string `bson:"city,omitempty" json:"city,omitempty"`
	State   string `bson:"state,omitempty" json:"state,omitempty"`
	Country string `bson:"country,omitempty" json:"country,omitempty"`
}

type Preferences struct {
	JobTypes      []string     `bson:"job_types,omitempty" json:"job_types,omitempty"`
	Industries    []string     `bson:"industries,omitempty" json:"industries,omitempty"`
	DesiredSalary *SalaryRange `bson:"desired_salary,omitempty" json:"desired_salary,omitempty"`
	Locations     []string     `bson:"locations,omitempty" json:"locations,omitempty"`
}

type SalaryRange struct {
	Min      int    `bson:"min,omitempty" json:"min,omitempty"`
	Max      int    `bson:"max,omitempty" json:"max,omitempty"`
	Currency string `bson:"currency,omitempty" json:"currency,omitempty"`
}

type Settings struct {
	EmailNotifications EmailNotifications `bson:"email_notifications" json:"email_notifications"`
	Privacy            PrivacySettings    `bson:"privacy" json:"privacy"`
	Theme              Theme              `bson:"theme" json:"theme"`
}

type EmailNotifications struct {
	ApplicationUpdates bool `bson:"application_updates" json:"application_updates"`
	NewMatches         bool `bson:"new_matches" json:"new_matches"`
	DeadlineReminders  bool `bson:"deadline_reminders" json:"deadline_reminders"`
}

type PrivacySettings struct {
	ProfileVisibility string `bson:"profile_visibility" json:"profile_visibility"` // Public|Private|Connections
}

// DefaultSettings is what new accounts get on registration.
func DefaultSettings() Settings {
	return Settings{
		EmailNotifications: EmailNotifications{
			ApplicationUpdates: true,
			NewMatches:         true,
			DeadlineReminders:  true,
		},
		Privacy: PrivacySettings{ProfileVisibility: "Private"},
		Theme:   ThemeSystem,
	}
}
