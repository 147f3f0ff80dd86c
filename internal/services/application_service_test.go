package services

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/jobdeckhq/jobdeck/internal/models"
	"github.com/jobdeckhq/jobdeck/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeAppRepo mirrors how the mongo repository applies $set / $push updates.
type fakeAppRepo struct {
	apps map[primitive.ObjectID]*models.Application
}

func newFakeAppRepo() *fakeAppRepo {
	return &fakeAppRepo{apps: map[primitive.ObjectID]*models.Application{}}
}

func (r *fakeAppRepo) Insert(_ context.Context, a *models.Application) error {
	a.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	cp := *a
	r.apps[a.ID] = &cp
	return nil
}

func (r *fakeAppRepo) List(_ context.Context, userID primitive.ObjectID, status models.Status) ([]models.Application, error) {
	out := []models.Application{}
	for _, a := range r.apps {
		if a.UserID != userID {
			continue
		}
		if status != "" && a.Status != status {
			continue
		}
		cp := *a
		cp.Description.Full = "" // list projection drops the full text
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (r *fakeAppRepo) get(userID, id primitive.ObjectID) (*models.Application, error) {
	a, ok := r.apps[id]
	if !ok || a.UserID != userID {
		return nil, utils.ErrNotFound
	}
	return a, nil
}

func (r *fakeAppRepo) GetByID(_ context.Context, userID, id primitive.ObjectID) (*models.Application, error) {
	a, err := r.get(userID, id)
	if err != nil {
		return nil, err
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAppRepo) FullDescription(_ context.Context, userID, id primitive.ObjectID) (string, error) {
	a, err := r.get(userID, id)
	if err != nil {
		return "", err
	}
	return a.Description.Full, nil
}

func (r *fakeAppRepo) Update(_ context.Context, userID, id primitive.ObjectID, set bson.M, timeline *models.TimelineEntry) (*models.Application, error) {
	a, err := r.get(userID, id)
	if err != nil {
		return nil, err
	}
	for k, v := range set {
		switch k {
		case "company":
			a.Company = v.(string)
		case "title":
			a.Title = v.(string)
		case "description.full":
			a.Description.Full = v.(string)
		case "description.truncated":
			a.Description.Truncated = v.(string)
		case "status":
			a.Status = v.(models.Status)
		case "match_score":
			a.MatchScore = v.(models.MatchScore)
		case "resume":
			res := v.(*models.Resume)
			a.Resume = res
		case "updated_at":
			a.UpdatedAt = v.(time.Time)
		}
	}
	if timeline != nil {
		a.Timeline = append(a.Timeline, *timeline)
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAppRepo) Delete(_ context.Context, userID, id primitive.ObjectID) (*models.Application, error) {
	a, err := r.get(userID, id)
	if err != nil {
		return nil, err
	}
	delete(r.apps, id)
	return a, nil
}

func (r *fakeAppRepo) Stats(_ context.Context, userID primitive.ObjectID) ([]models.StatusStat, error) {
	sum := map[models.Status]*models.StatusStat{}
	for _, a := range r.apps {
		if a.UserID != userID {
			continue
		}
		st, ok := sum[a.Status]
		if !ok {
			st = &models.StatusStat{Status: a.Status}
			sum[a.Status] = st
		}
		st.AvgMatchScore = (st.AvgMatchScore*float64(st.Count) + float64(a.MatchScore.Percentage)) / float64(st.Count+1)
		st.Count++
	}
	out := []models.StatusStat{}
	for _, st := range sum {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Status < out[j].Status })
	return out, nil
}

// fakeGateway records calls; failUpload/failDelete switch it into error mode.
type fakeGateway struct {
	failUpload bool
	failDelete bool
	uploaded   map[string][]byte
	deleted    []string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{uploaded: map[string][]byte{}}
}

func (g *fakeGateway) Upload(_ context.Context, objectName, _ string, r io.Reader) (string, error) {
	if g.failUpload {
		return "", errors.New("bucket unreachable")
	}
	b, _ := io.ReadAll(r)
	g.uploaded[objectName] = b
	return objectName, nil
}

func (g *fakeGateway) SignedGetURL(_ context.Context, objectName string, _ time.Duration) (string, error) {
	return "https://signed.example.com/" + objectName, nil
}

func (g *fakeGateway) Delete(_ context.Context, objectName string) error {
	if g.failDelete {
		return errors.New("bucket unreachable")
	}
	g.deleted = append(g.deleted, objectName)
	return nil
}

func pdfUpload(name, content string) *ResumeUpload {
	return &ResumeUpload{
		FileName:    name,
		ContentType: "application/pdf",
		Size:        int64(len(content)),
		Reader:      strings.NewReader(content),
	}
}

func TestCreateSeedsTimeline(t *testing.T) {
	repo := newFakeAppRepo()
	svc := NewApplicationService(repo, newFakeGateway())
	userID := primitive.NewObjectID()

	out, err := svc.Create(context.Background(), userID, CreateApplicationInput{
		Company:     "Acme",
		Title:       "Backend Engineer",
		Description: strings.Repeat("Build services. ", 30),
		Status:      models.StatusApplied,
	}, nil)
	require.NoError(t, err)
	require.Nil(t, out.ResumeWarning)

	app := out.Application
	assert.Equal(t, userID, app.UserID)
	require.Len(t, app.Timeline, 1)
	assert.Equal(t, models.StatusApplied, app.Timeline[0].Status)
	assert.Equal(t, "Application created", app.Timeline[0].Notes)
	assert.Equal(t, app.Description.Full[:models.TruncateLimit]+"...", app.Description.Truncated)
}

func TestCreateDefaultsStatusAndScore(t *testing.T) {
	svc := NewApplicationService(newFakeAppRepo(), newFakeGateway())

	out, err := svc.Create(context.Background(), primitive.NewObjectID(), CreateApplicationInput{
		Company:     "Acme",
		Title:       "Backend Engineer",
		Description: "short",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, models.StatusApplied, out.Application.Status)
	// placeholder score stays in the observed 70-99 band
	assert.GreaterOrEqual(t, out.Application.MatchScore.Percentage, 70)
	assert.Less(t, out.Application.MatchScore.Percentage, 100)
	assert.Equal(t, "short", out.Application.Description.Truncated)
}

func TestCreateRejectsBadInput(t *testing.T) {
	svc := NewApplicationService(newFakeAppRepo(), newFakeGateway())
	ctx := context.Background()
	userID := primitive.NewObjectID()

	_, err := svc.Create(ctx, userID, CreateApplicationInput{Title: "x", Description: "y"}, nil)
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))

	_, err = svc.Create(ctx, userID, CreateApplicationInput{
		Company: "Acme", Title: "x", Description: "y", Status: "Not Selected",
	}, nil)
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}

func TestCreateWithResume(t *testing.T) {
	repo := newFakeAppRepo()
	gw := newFakeGateway()
	svc := NewApplicationService(repo, gw)
	userID := primitive.NewObjectID()

	out, err := svc.Create(context.Background(), userID, CreateApplicationInput{
		Company: "Acme", Title: "Backend Engineer", Description: "desc",
	}, pdfUpload("cv.pdf", "%PDF-1.7 data"))
	require.NoError(t, err)
	require.Nil(t, out.ResumeWarning)

	res := out.Application.Resume
	require.NotNil(t, res)
	assert.Equal(t, "cv.pdf", res.FileName)
	assert.Contains(t, res.StorageKey, "resumes/"+userID.Hex()+"/")
	assert.True(t, strings.HasSuffix(res.StorageKey, "-cv.pdf"))
	assert.Contains(t, res.FileURL, "https://signed.example.com/")
	assert.Len(t, gw.uploaded, 1)
}

func TestCreateUploadFailureIsDegradedSuccess(t *testing.T) {
	repo := newFakeAppRepo()
	gw := newFakeGateway()
	gw.failUpload = true
	svc := NewApplicationService(repo, gw)

	out, err := svc.Create(context.Background(), primitive.NewObjectID(), CreateApplicationInput{
		Company: "Acme", Title: "Backend Engineer", Description: "desc",
	}, pdfUpload("cv.pdf", "%PDF-1.7 data"))
	require.NoError(t, err)

	// persisted, without the attachment, with a warning for the caller to log
	require.NotNil(t, out.ResumeWarning)
	assert.Nil(t, out.Application.Resume)
	assert.Len(t, repo.apps, 1)
}

func TestValidateResume(t *testing.T) {
	cases := []struct {
		name   string
		upload ResumeUpload
		ok     bool
	}{
		{"pdf", ResumeUpload{FileName: "a.pdf", ContentType: "application/pdf", Size: 100}, true},
		{"doc", ResumeUpload{FileName: "a.doc", ContentType: "application/msword", Size: 100}, true},
		{"docx", ResumeUpload{FileName: "a.docx", ContentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document", Size: 100}, true},
		{"png rejected", ResumeUpload{FileName: "a.png", ContentType: "image/png", Size: 100}, false},
		{"text rejected", ResumeUpload{FileName: "a.txt", ContentType: "text/plain", Size: 100}, false},
		{"empty rejected", ResumeUpload{FileName: "a.pdf", ContentType: "application/pdf", Size: 0}, false},
		{"at cap ok", ResumeUpload{FileName: "a.pdf", ContentType: "application/pdf", Size: MaxResumeSize}, true},
		{"over cap rejected", ResumeUpload{FileName: "a.pdf", ContentType: "application/pdf", Size: MaxResumeSize + 1}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateResume(&tc.upload)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
			}
		})
	}
}

func TestOversizeResumeNeverReachesStorage(t *testing.T) {
	gw := newFakeGateway()
	svc := NewApplicationService(newFakeAppRepo(), gw)

	_, err := svc.Create(context.Background(), primitive.NewObjectID(), CreateApplicationInput{
		Company: "Acme", Title: "x", Description: "y",
	}, &ResumeUpload{FileName: "big.pdf", ContentType: "application/pdf", Size: MaxResumeSize + 1})
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
	assert.Empty(t, gw.uploaded)
}

func TestUpdateStatusAppendsTimeline(t *testing.T) {
	repo := newFakeAppRepo()
	svc := NewApplicationService(repo, newFakeGateway())
	ctx := context.Background()
	userID := primitive.NewObjectID()

	out, err := svc.Create(ctx, userID, CreateApplicationInput{
		Company: "Acme", Title: "x", Description: "y", Status: models.StatusApplied,
	}, nil)
	require.NoError(t, err)
	id := out.Application.ID

	st := models.StatusInterviewing
	updated, err := svc.Update(ctx, userID, id, ApplicationPatch{Status: &st}, nil)
	require.NoError(t, err)

	st = models.StatusOffer
	updated, err = svc.Update(ctx, userID, id, ApplicationPatch{Status: &st}, nil)
	require.NoError(t, err)

	app := updated.Application
	assert.Equal(t, models.StatusOffer, app.Status)
	require.Len(t, app.Timeline, 3)
	assert.Equal(t, models.StatusInterviewing, app.Timeline[1].Status)
	assert.Equal(t, models.StatusOffer, app.Timeline[2].Status)
	for i := 1; i < len(app.Timeline); i++ {
		assert.False(t, app.Timeline[i].Date.Before(app.Timeline[i-1].Date),
			"timeline entry %d predates entry %d", i, i-1)
	}
}

func TestUpdateDescriptionRecomputesTruncation(t *testing.T) {
	repo := newFakeAppRepo()
	svc := NewApplicationService(repo, newFakeGateway())
	ctx := context.Background()
	userID := primitive.NewObjectID()

	out, err := svc.Create(ctx, userID, CreateApplicationInput{
		Company: "Acme", Title: "x", Description: "short",
	}, nil)
	require.NoError(t, err)

	long := strings.Repeat("z", 450)
	updated, err := svc.Update(ctx, userID, out.Application.ID, ApplicationPatch{Description: &long}, nil)
	require.NoError(t, err)

	assert.Equal(t, long, updated.Application.Description.Full)
	assert.Equal(t, long[:models.TruncateLimit]+"...", updated.Application.Description.Truncated)
	// no status change, so no new timeline entry
	assert.Len(t, updated.Application.Timeline, 1)
}

func TestUpdateOtherUsersApplicationIsNotFound(t *testing.T) {
	repo := newFakeAppRepo()
	svc := NewApplicationService(repo, newFakeGateway())
	ctx := context.Background()
	owner := primitive.NewObjectID()
	intruder := primitive.NewObjectID()

	out, err := svc.Create(ctx, owner, CreateApplicationInput{
		Company: "Acme", Title: "x", Description: "y",
	}, nil)
	require.NoError(t, err)
	id := out.Application.ID

	company := "Evil Corp"
	_, err = svc.Update(ctx, intruder, id, ApplicationPatch{Company: &company}, nil)
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))

	_, err = svc.FullDescription(ctx, intruder, id)
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))

	_, err = svc.Delete(ctx, intruder, id)
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))

	// record untouched
	app, err := svc.Update(ctx, owner, id, ApplicationPatch{Company: &company}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Evil Corp", app.Application.Company)
}

func TestUpdateEmptyPatchRejected(t *testing.T) {
	svc := NewApplicationService(newFakeAppRepo(), newFakeGateway())
	_, err := svc.Update(context.Background(), primitive.NewObjectID(), primitive.NewObjectID(), ApplicationPatch{}, nil)
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}

func TestUpdateResumeOnlyUploadFailureIsDegradedSuccess(t *testing.T) {
	repo := newFakeAppRepo()
	gw := newFakeGateway()
	svc := NewApplicationService(repo, gw)
	ctx := context.Background()
	userID := primitive.NewObjectID()

	out, err := svc.Create(ctx, userID, CreateApplicationInput{
		Company: "Acme", Title: "Backend Engineer", Description: "desc", Status: models.StatusApplied,
	}, nil)
	require.NoError(t, err)
	id := out.Application.ID

	gw.failUpload = true
	updated, err := svc.Update(ctx, userID, id, ApplicationPatch{}, pdfUpload("cv.pdf", "%PDF-1.7 data"))
	require.NoError(t, err)
	require.NotNil(t, updated.ResumeWarning)

	app := updated.Application
	require.NotNil(t, app)
	assert.Equal(t, models.StatusApplied, app.Status)
	assert.Nil(t, app.Resume)
	assert.Empty(t, gw.uploaded)
}

func TestListFiltersAndHidesFullDescription(t *testing.T) {
	repo := newFakeAppRepo()
	svc := NewApplicationService(repo, newFakeGateway())
	ctx := context.Background()
	userID := primitive.NewObjectID()

	for _, st := range []models.Status{models.StatusApplied, models.StatusInterviewing, models.StatusApplied} {
		_, err := svc.Create(ctx, userID, CreateApplicationInput{
			Company: "Acme", Title: "x", Description: strings.Repeat("d", 300), Status: st,
		}, nil)
		require.NoError(t, err)
	}

	all, err := svc.List(ctx, userID, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
	for _, a := range all {
		assert.Empty(t, a.Description.Full)
		assert.NotEmpty(t, a.Description.Truncated)
	}

	applied, err := svc.List(ctx, userID, models.StatusApplied)
	require.NoError(t, err)
	assert.Len(t, applied, 2)

	_, err = svc.List(ctx, userID, "Bogus")
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))

	other, err := svc.List(ctx, primitive.NewObjectID(), "")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestDeleteRemovesResumeObject(t *testing.T) {
	repo := newFakeAppRepo()
	gw := newFakeGateway()
	svc := NewApplicationService(repo, gw)
	ctx := context.Background()
	userID := primitive.NewObjectID()

	out, err := svc.Create(ctx, userID, CreateApplicationInput{
		Company: "Acme", Title: "x", Description: "y",
	}, pdfUpload("cv.pdf", "data"))
	require.NoError(t, err)
	key := out.Application.Resume.StorageKey

	warn, err := svc.Delete(ctx, userID, out.Application.ID)
	require.NoError(t, err)
	assert.Nil(t, warn)
	assert.Equal(t, []string{key}, gw.deleted)
	assert.Empty(t, repo.apps)
}

func TestDeleteStorageFailureIsNonFatal(t *testing.T) {
	repo := newFakeAppRepo()
	gw := newFakeGateway()
	svc := NewApplicationService(repo, gw)
	ctx := context.Background()
	userID := primitive.NewObjectID()

	out, err := svc.Create(ctx, userID, CreateApplicationInput{
		Company: "Acme", Title: "x", Description: "y",
	}, pdfUpload("cv.pdf", "data"))
	require.NoError(t, err)

	gw.failDelete = true
	warn, err := svc.Delete(ctx, userID, out.Application.ID)
	require.NoError(t, err)
	assert.NotNil(t, warn)
	assert.Empty(t, repo.apps) // record gone regardless
}

func TestStats(t *testing.T) {
	repo := newFakeAppRepo()
	svc := NewApplicationService(repo, newFakeGateway())
	ctx := context.Background()
	userID := primitive.NewObjectID()

	seed := []struct {
		status models.Status
		score  int
	}{
		{models.StatusApplied, 80},
		{models.StatusApplied, 90},
		{models.StatusOffer, 95},
	}
	for _, s := range seed {
		_, err := svc.Create(ctx, userID, CreateApplicationInput{
			Company: "Acme", Title: "x", Description: "y", Status: s.status,
			MatchScore: &models.MatchScore{Percentage: s.score},
		}, nil)
		require.NoError(t, err)
	}

	stats, err := svc.Stats(ctx, userID)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	byStatus := map[models.Status]models.StatusStat{}
	for _, st := range stats {
		byStatus[st.Status] = st
	}
	assert.Equal(t, int64(2), byStatus[models.StatusApplied].Count)
	assert.InDelta(t, 85.0, byStatus[models.StatusApplied].AvgMatchScore, 0.001)
	assert.Equal(t, int64(1), byStatus[models.StatusOffer].Count)
}

func TestResumeURL(t *testing.T) {
	repo := newFakeAppRepo()
	svc := NewApplicationService(repo, newFakeGateway())
	ctx := context.Background()
	userID := primitive.NewObjectID()

	withResume, err := svc.Create(ctx, userID, CreateApplicationInput{
		Company: "Acme", Title: "x", Description: "y",
	}, pdfUpload("cv.pdf", "data"))
	require.NoError(t, err)

	url, err := svc.ResumeURL(ctx, userID, withResume.Application.ID)
	require.NoError(t, err)
	assert.Contains(t, url, withResume.Application.Resume.StorageKey)

	bare, err := svc.Create(ctx, userID, CreateApplicationInput{
		Company: "Acme", Title: "x", Description: "y",
	}, nil)
	require.NoError(t, err)

	_, err = svc.ResumeURL(ctx, userID, bare.Application.ID)
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))

	_, err = svc.ResumeURL(ctx, primitive.NewObjectID(), withResume.Application.ID)
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
}
