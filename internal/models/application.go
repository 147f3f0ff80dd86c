package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Status string

const (
	StatusWishlist     Status = "Wishlist"
	StatusApplied      Status = "Applied"
	StatusInterviewing Status = "Interviewing"
	StatusOffer        Status = "Offer"
	StatusRejected     Status = "Rejected"
	StatusWithdrawn    Status = "Withdrawn"
)

// TruncateLimit is the length of the list-view description preview.
const TruncateLimit = 200

func ValidStatus(s Status) bool {
	switch s {
	case StatusWishlist, StatusApplied, StatusInterviewing, StatusOffer, StatusRejected, StatusWithdrawn:
		return true
	}
	return false
}

type Application struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID primitive.ObjectID `bson:"user" json:"user"`

	Company     string      `bson:"company" json:"company"`
	Title       string      `bson:"title" json:"title"`
	Description Description `bson:"description" json:"description"`
	Status      Status      `bson:"status" json:"status"`

	Resume     *Resume         `bson:"resume,omitempty" json:"resume,omitempty"`
	MatchScore MatchScore      `bson:"match_score" json:"match_score"`
	Timeline   []TimelineEntry `bson:"timeline" json:"timeline"`

	Metadata  Metadata   `bson:"metadata,omitempty" json:"metadata,omitempty"`
	NextSteps []NextStep `bson:"next_steps,omitempty" json:"next_steps,omitempty"`
	Contacts  []Contact  `bson:"contacts,omitempty" json:"contacts,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Description keeps the full text alongside a fixed-length preview. List
// queries project the full text away; json omitempty keeps it out of list
// responses.
type Description struct {
	Full      string `bson:"full,omitempty" json:"full,omitempty"`
	Truncated string `bson:"truncated" json:"truncated"`
}

// NewDescription derives the preview from the full text. Text longer than
// TruncateLimit is cut there and marked with an ellipsis; shorter text is
// kept verbatim.
func NewDescription(full string) Description {
	return Description{Full: full, Truncated: Truncate(full)}
}

// Truncate counts characters, not bytes, so multibyte text keeps a full
// 200-character preview and the cut never splits a rune.
func Truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= TruncateLimit {
		return text
	}
	return string(runes[:TruncateLimit]) + "..."
}

type Resume struct {
	FileName   string    `bson:"file_name" json:"file_name"`
	FileURL    string    `bson:"file_url" json:"file_url"`
	UploadDate time.Time `bson:"upload_date" json:"upload_date"`
	StorageKey string    `bson:"storage_key" json:"-"`
}

type MatchScore struct {
	Percentage int              `bson:"percentage" json:"percentage"` // 0-100
	Details    MatchScoreDetail `bson:"details" json:"details"`
}

type MatchScoreDetail struct {
	SkillsMatch     int `bson:"skills_match" json:"skills_match"`
	ExperienceMatch int `bson:"experience_match" json:"experience_match"`
	EducationMatch  int `bson:"education_match" json:"education_match"`
	KeywordsMatch   int `bson:"keywords_match" json:"keywords_match"`
}

// TimelineEntry records one status change. The timeline is append-only.
type TimelineEntry struct {
	Status Status    `bson:"status" json:"status"`
	Date   time.Time `bson:"date" json:"date"`
	Notes  string    `bson:"notes,omitempty" json:"notes,omitempty"`
}

type Metadata struct {
	Salary   *SalaryRange `bson:"salary,omitempty" json:"salary,omitempty"`
	Location string       `bson:"location,omitempty" json:"location,omitempty"`
	JobType  string       `bson:"job_type,omitempty" json:"job_type,omitempty"` // Full-time|Part-time|Contract|Internship|Remote
	Source   string       `bson:"source,omitempty" json:"source,omitempty"`
}

type NextStep struct {
	Action    string     `bson:"action" json:"action"`
	DueDate   *time.Time `bson:"due_date,omitempty" json:"due_date,omitempty"`
	Completed bool       `bson:"completed" json:"completed"`
}

type Contact struct {
	Name  string `bson:"name" json:"name"`
	Role  string `bson:"role,omitempty" json:"role,omitempty"`
	Email string `bson:"email,omitempty" json:"email,omitempty"`
	Phone string `bson:"phone,omitempty" json:"phone,omitempty"`
	Notes string `bson:"notes,omitempty" json:"notes,omitempty"`
}

// StatusStat is one bucket of the per-status aggregation.
type StatusStat struct {
	Status        Status  `bson:"_id" json:"status"`
	Count         int64   `bson:"count" json:"count"`
	AvgMatchScore float64 `bson:"avg_match_score" json:"avg_match_score"`
}
