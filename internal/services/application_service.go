package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"

	"github.com/jobdeckhq/jobdeck/internal/models"
	mongorepo "github.com/jobdeckhq/jobdeck/internal/repositories/mongo"
	"github.com/jobdeckhq/jobdeck/internal/storage"
	"github.com/jobdeckhq/jobdeck/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxResumeSize caps resume uploads at 5 MiB.
const MaxResumeSize = 5 << 20

var allowedResumeTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
}

// ResumeUpload is a validated-on-entry resume file taken from a multipart
// request.
type ResumeUpload struct {
	FileName    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// ValidateResume rejects disallowed types and oversize files before any
// storage call is made.
func ValidateResume(r *ResumeUpload) error {
	const op = "ApplicationService.ValidateResume"

	if r.FileName == "" {
		return utils.E(utils.CodeInvalidArgument, op, "resume file name is required", nil)
	}
	if !allowedResumeTypes[r.ContentType] {
		return utils.E(utils.CodeInvalidArgument, op, "invalid file type, only PDF and Word documents are allowed", nil)
	}
	if r.Size <= 0 || r.Size > MaxResumeSize {
		return utils.E(utils.CodeInvalidArgument, op, "file too large (max 5MB)", nil)
	}
	return nil
}

type CreateApplicationInput struct {
	Company     string
	Title       string
	Description string
	Status      models.Status
	MatchScore  *models.MatchScore
	Metadata    *models.Metadata
}

type ApplicationPatch struct {
	Company     *string            `json:"company,omitempty"`
	Title       *string            `json:"title,omitempty"`
	Description *string            `json:"description,omitempty"`
	Status      *models.Status     `json:"status,omitempty"`
	MatchScore  *models.MatchScore `json:"match_score,omitempty"`
}

// SaveOutcome distinguishes a clean save from a degraded one. A non-nil
// ResumeWarning means the record was persisted but the requested resume
// attachment failed; the request as a whole still succeeded.
type SaveOutcome struct {
	Application   *models.Application
	ResumeWarning error
}

type ApplicationService interface {
	Create(ctx context.Context, userID primitive.ObjectID, in CreateApplicationInput, resume *ResumeUpload) (SaveOutcome, error)
	List(ctx context.Context, userID primitive.ObjectID, status models.Status) ([]models.Application, error)
	FullDescription(ctx context.Context, userID, id primitive.ObjectID) (string, error)
	Update(ctx context.Context, userID, id primitive.ObjectID, patch ApplicationPatch, resume *ResumeUpload) (SaveOutcome, error)
	Delete(ctx context.Context, userID, id primitive.ObjectID) (resumeWarning error, err error)
	Stats(ctx context.Context, userID primitive.ObjectID) ([]models.StatusStat, error)
	ResumeURL(ctx context.Context, userID, id primitive.ObjectID) (string, error)
}

type applicationService struct {
	apps    mongorepo.ApplicationRepository
	storage storage.Gateway // nil when no bucket is configured
}

func NewApplicationService(apps mongorepo.ApplicationRepository, gw storage.Gateway) ApplicationService {
	return &applicationService{apps: apps, storage: gw}
}

func (s *applicationService) Create(ctx context.Context, userID primitive.ObjectID, in CreateApplicationInput, resume *ResumeUpload) (SaveOutcome, error) {
	const op = "ApplicationService.Create"

	if strings.TrimSpace(in.Company) == "" || strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Description) == "" {
		return SaveOutcome{}, utils.E(utils.CodeInvalidArgument, op, "company, title, and description are required", nil)
	}
	status := in.Status
	if status == "" {
		status = models.StatusApplied
	}
	if !models.ValidStatus(status) {
		return SaveOutcome{}, utils.E(utils.CodeInvalidArgument, op, "unknown application status", nil)
	}
	if resume != nil {
		if err := ValidateResume(resume); err != nil {
			return SaveOutcome{}, err
		}
	}

	score := models.MatchScore{}
	if in.MatchScore != nil {
		score = *in.MatchScore
	} else {
		// placeholder until real matching exists
		score.Percentage = 70 + rand.Intn(30)
	}
	if score.Percentage < 0 || score.Percentage > 100 {
		return SaveOutcome{}, utils.E(utils.CodeInvalidArgument, op, "match score must be between 0 and 100", nil)
	}

	now := time.Now().UTC()
	app := &models.Application{
		UserID:      userID,
		Company:     strings.TrimSpace(in.Company),
		Title:       strings.TrimSpace(in.Title),
		Description: models.NewDescription(in.Description),
		Status:      status,
		MatchScore:  score,
		Timeline: []models.TimelineEntry{{
			Status: status,
			Date:   now,
			Notes:  "Application created",
		}},
	}
	if in.Metadata != nil {
		app.Metadata = *in.Metadata
	}

	var warn error
	if resume != nil {
		att, err := s.uploadResume(ctx, userID, resume)
		if err != nil {
			// saved without the attachment; never fails the request
			warn = err
		} else {
			app.Resume = att
		}
	}

	if err := s.apps.Insert(ctx, app); err != nil {
		return SaveOutcome{}, utils.E(utils.CodeInternal, op, "failed to create application", err)
	}
	return SaveOutcome{Application: app, ResumeWarning: warn}, nil
}

func (s *applicationService) List(ctx context.Context, userID primitive.ObjectID, status models.Status) ([]models.Application, error) {
	const op = "ApplicationService.List"

	if status != "" && !models.ValidStatus(status) {
		return nil, utils.E(utils.CodeInvalidArgument, op, "unknown application status", nil)
	}

	apps, err := s.apps.List(ctx, userID, status)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list applications", err)
	}
	return apps, nil
}

func (s *applicationService) FullDescription(ctx context.Context, userID, id primitive.ObjectID) (string, error) {
	const op = "ApplicationService.FullDescription"

	text, err := s.apps.FullDescription(ctx, userID, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return "", utils.E(utils.CodeNotFound, op, "application not found", err)
		}
		return "", utils.E(utils.CodeInternal, op, "failed to fetch description", err)
	}
	return text, nil
}

func (s *applicationService) Update(ctx context.Context, userID, id primitive.ObjectID, patch ApplicationPatch, resume *ResumeUpload) (SaveOutcome, error) {
	const op = "ApplicationService.Update"

	if resume != nil {
		if err := ValidateResume(resume); err != nil {
			return SaveOutcome{}, err
		}
	}

	set := bson.M{}
	var timeline *models.TimelineEntry

	if patch.Company != nil {
		set["company"] = strings.TrimSpace(*patch.Company)
	}
	if patch.Title != nil {
		set["title"] = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		d := models.NewDescription(*patch.Description)
		set["description.full"] = d.Full
		set["description.truncated"] = d.Truncated
	}
	if patch.Status != nil {
		if !models.ValidStatus(*patch.Status) {
			return SaveOutcome{}, utils.E(utils.CodeInvalidArgument, op, "unknown application status", nil)
		}
		set["status"] = *patch.Status
		timeline = &models.TimelineEntry{
			Status: *patch.Status,
			Date:   time.Now().UTC(),
			Notes:  "Status updated",
		}
	}
	if patch.MatchScore != nil {
		if patch.MatchScore.Percentage < 0 || patch.MatchScore.Percentage > 100 {
			return SaveOutcome{}, utils.E(utils.CodeInvalidArgument, op, "match score must be between 0 and 100", nil)
		}
		set["match_score"] = *patch.MatchScore
	}

	var warn error
	if resume != nil {
		att, err := s.uploadResume(ctx, userID, resume)
		if err != nil {
			warn = err
		} else {
			set["resume"] = att
		}
	}

	if len(set) == 0 {
		if resume == nil {
			return SaveOutcome{}, utils.E(utils.CodeInvalidArgument, op, "no updatable fields in request", nil)
		}
		// A resume was the only change and its upload failed. That is a
		// degraded success, not a request failure: hand back the record
		// as it stands along with the warning.
		app, err := s.apps.GetByID(ctx, userID, id)
		if err != nil {
			if errors.Is(err, utils.ErrNotFound) {
				return SaveOutcome{}, utils.E(utils.CodeNotFound, op, "application not found", err)
			}
			return SaveOutcome{}, utils.E(utils.CodeInternal, op, "failed to load application", err)
		}
		return SaveOutcome{Application: app, ResumeWarning: warn}, nil
	}

	app, err := s.apps.Update(ctx, userID, id, set, timeline)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return SaveOutcome{}, utils.E(utils.CodeNotFound, op, "application not found", err)
		}
		return SaveOutcome{}, utils.E(utils.CodeInternal, op, "failed to update application", err)
	}
	return SaveOutcome{Application: app, ResumeWarning: warn}, nil
}

// Delete removes the record and then the attached resume object. The storage
// delete is best-effort: its failure comes back as resumeWarning, never as a
// failure of the delete itself.
func (s *applicationService) Delete(ctx context.Context, userID, id primitive.ObjectID) (error, error) {
	const op = "ApplicationService.Delete"

	app, err := s.apps.Delete(ctx, userID, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "application not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to delete application", err)
	}

	var warn error
	if app.Resume != nil && app.Resume.StorageKey != "" {
		if s.storage == nil {
			warn = utils.E(utils.CodeUnavailable, op, "storage is not configured", nil)
		} else if err := s.storage.Delete(ctx, app.Resume.StorageKey); err != nil {
			warn = utils.E(utils.CodeUnavailable, op, "failed to delete resume object", err)
		}
	}
	return warn, nil
}

func (s *applicationService) Stats(ctx context.Context, userID primitive.ObjectID) ([]models.StatusStat, error) {
	const op = "ApplicationService.Stats"

	stats, err := s.apps.Stats(ctx, userID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to aggregate stats", err)
	}
	return stats, nil
}

// ResumeURL mints a fresh signed link for an owned application's resume.
func (s *applicationService) ResumeURL(ctx context.Context, userID, id primitive.ObjectID) (string, error) {
	const op = "ApplicationService.ResumeURL"

	app, err := s.apps.GetByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return "", utils.E(utils.CodeNotFound, op, "application not found", err)
		}
		return "", utils.E(utils.CodeInternal, op, "failed to load application", err)
	}
	if app.Resume == nil || app.Resume.StorageKey == "" {
		return "", utils.E(utils.CodeNotFound, op, "application has no resume", nil)
	}
	if s.storage == nil {
		return "", utils.E(utils.CodeUnavailable, op, "storage is not configured", nil)
	}

	url, err := s.storage.SignedGetURL(ctx, app.Resume.StorageKey, storage.SignedURLTTL)
	if err != nil {
		return "", utils.E(utils.CodeUnavailable, op, "failed to sign resume url", err)
	}
	return url, nil
}

// uploadResume stores the file under a per-user, timestamped key so names
// cannot collide, then signs an initial download link. A missing gateway or
// a failed upload is reported to the caller as a warning, not a failure.
func (s *applicationService) uploadResume(ctx context.Context, userID primitive.ObjectID, r *ResumeUpload) (*models.Resume, error) {
	const op = "ApplicationService.uploadResume"

	if s.storage == nil {
		return nil, utils.E(utils.CodeUnavailable, op, "storage is not configured", nil)
	}

	key := fmt.Sprintf("resumes/%s/%d-%s", userID.Hex(), time.Now().UnixMilli(), r.FileName)
	storedKey, err := s.storage.Upload(ctx, key, r.ContentType, r.Reader)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to upload resume", err)
	}

	att := &models.Resume{
		FileName:   r.FileName,
		UploadDate: time.Now().UTC(),
		StorageKey: storedKey,
	}

	// initial signed link; clients can refresh it via ResumeURL
	if url, err := s.storage.SignedGetURL(ctx, storedKey, storage.SignedURLTTL); err == nil {
		att.FileURL = url
	}
	return att, nil
}
