package services

import (
	"context"
	"errors"
	"strings"

	"github.com/jobdeckhq/jobdeck/internal/models"
	mongorepo "github.com/jobdeckhq/jobdeck/internal/repositories/mongo"
	"github.com/jobdeckhq/jobdeck/internal/session"
	"github.com/jobdeckhq/jobdeck/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProfilePatch struct {
	Name     *string          `json:"name,omitempty"`
	Title    *string          `json:"title,omitempty"`
	Location *models.Location `json:"location,omitempty"`
	Skills   *[]models.Skill  `json:"skills,omitempty"`
}

type AuthService interface {
	Register(ctx context.Context, email, password, name string) (*models.User, string, error)
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	Logout(ctx context.Context, sessionID string) error
	CurrentUser(ctx context.Context, sessionID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID primitive.ObjectID, patch ProfilePatch) (*models.User, error)
}

type authService struct {
	users    mongorepo.UserRepository
	sessions session.Store
}

func NewAuthService(users mongorepo.UserRepository, sessions session.Store) AuthService {
	return &authService{users: users, sessions: sessions}
}

// Register creates the account and logs it in, returning the new session id.
func (s *authService) Register(ctx context.Context, email, password, name string) (*models.User, string, error) {
	const op = "AuthService.Register"

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, "", utils.E(utils.CodeInvalidArgument, op, "email and password are required", nil)
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, "", utils.E(utils.CodeInternal, op, "failed to hash password", err)
	}

	u := &models.User{
		Email:    email,
		Password: hash,
		Profile:  models.Profile{Name: name},
		Settings: models.DefaultSettings(),
	}

	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, utils.ErrConflict) {
			return nil, "", utils.E(utils.CodeConflict, op, "email already registered", err)
		}
		return nil, "", utils.E(utils.CodeInternal, op, "failed to create user", err)
	}

	sid, err := s.sessions.Create(ctx, u.ID.Hex())
	if err != nil {
		return nil, "", utils.E(utils.CodeInternal, op, "failed to create session", err)
	}
	return u, sid, nil
}

// Login deliberately returns the same error for an unknown email and a wrong
// password.
func (s *authService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	const op = "AuthService.Login"

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, "", utils.E(utils.CodeInvalidArgument, op, "email and password are required", nil)
	}

	invalid := utils.E(utils.CodeUnauthorized, op, "invalid email or password", nil)

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, "", invalid
		}
		return nil, "", utils.E(utils.CodeInternal, op, "failed to look up user", err)
	}

	if err := utils.CheckPassword(u.Password, password); err != nil {
		return nil, "", invalid
	}

	sid, err := s.sessions.Create(ctx, u.ID.Hex())
	if err != nil {
		return nil, "", utils.E(utils.CodeInternal, op, "failed to create session", err)
	}
	return u, sid, nil
}

// Logout destroys the session. Destroying an already-gone session is not an
// error; the caller only cares that it no longer exists.
func (s *authService) Logout(ctx context.Context, sessionID string) error {
	const op = "AuthService.Logout"

	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Destroy(ctx, sessionID); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to destroy session", err)
	}
	return nil
}

func (s *authService) CurrentUser(ctx context.Context, sessionID string) (*models.User, error) {
	const op = "AuthService.CurrentUser"

	if sessionID == "" {
		return nil, utils.E(utils.CodeUnauthorized, op, "not logged in", nil)
	}

	userID, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeUnauthorized, op, "not logged in", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to resolve session", err)
	}

	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, utils.E(utils.CodeUnauthorized, op, "not logged in", err)
	}

	u, err := s.users.GetByID(ctx, oid)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			// session survived the user; treat as unauthenticated
			return nil, utils.E(utils.CodeUnauthorized, op, "not logged in", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load user", err)
	}
	return u, nil
}

func (s *authService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, patch ProfilePatch) (*models.User, error) {
	const op = "AuthService.UpdateProfile"

	set := bson.M{}
	if patch.Name != nil {
		set["profile.name"] = *patch.Name
	}
	if patch.Title != nil {
		set["profile.title"] = *patch.Title
	}
	if patch.Location != nil {
		set["profile.location"] = *patch.Location
	}
	if patch.Skills != nil {
		set["profile.skills"] = *patch.Skills
	}
	if len(set) == 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "no updatable fields in request", nil)
	}

	u, err := s.users.UpdateProfile(ctx, userID, set)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "user not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to update profile", err)
	}
	return u, nil
}
