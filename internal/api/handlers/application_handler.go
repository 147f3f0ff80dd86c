package handlers

import (
	"encoding/json"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jobdeckhq/jobdeck/internal/models"
	"github.com/jobdeckhq/jobdeck/internal/services"
	"github.com/jobdeckhq/jobdeck/internal/utils"
	"github.com/sirupsen/logrus"
)

type ApplicationHandler struct {
	svc services.ApplicationService
	log *logrus.Logger
}

func NewApplicationHandler(svc services.ApplicationService, log *logrus.Logger) *ApplicationHandler {
	return &ApplicationHandler{svc: svc, log: log}
}

func (h *ApplicationHandler) List(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	status := models.Status(c.Query("status"))
	if status == "all" {
		status = ""
	}

	apps, err := h.svc.List(c.Request.Context(), userID, status)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, apps)
}

func (h *ApplicationHandler) FullDescription(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}

	text, err := h.svc.FullDescription(c.Request.Context(), userID, id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"description": text})
}

func (h *ApplicationHandler) Create(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	const op = "ApplicationHandler.Create"

	in := services.CreateApplicationInput{
		Company:     c.PostForm("company"),
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Status:      models.Status(c.PostForm("status")),
	}

	if raw, found := c.GetPostForm("matchScore"); found && raw != "" {
		var score models.MatchScore
		if err := json.Unmarshal([]byte(raw), &score); err != nil {
			writeError(c, utils.E(utils.CodeInvalidArgument, op, "matchScore must be valid JSON", err))
			return
		}
		in.MatchScore = &score
	}

	resume, file, err := h.resumeFromForm(c)
	if err != nil {
		writeError(c, err)
		return
	}
	if file != nil {
		defer file.Close()
	}

	out, err := h.svc.Create(c.Request.Context(), userID, in, resume)
	if err != nil {
		writeError(c, err)
		return
	}
	h.logResumeWarning(c, out.ResumeWarning)

	c.JSON(http.StatusCreated, out.Application)
}

func (h *ApplicationHandler) Update(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}

	const op = "ApplicationHandler.Update"

	var (
		patch  services.ApplicationPatch
		resume *services.ResumeUpload
	)

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if v, found := c.GetPostForm("company"); found {
			patch.Company = &v
		}
		if v, found := c.GetPostForm("title"); found {
			patch.Title = &v
		}
		if v, found := c.GetPostForm("description"); found {
			patch.Description = &v
		}
		if v, found := c.GetPostForm("status"); found {
			st := models.Status(v)
			patch.Status = &st
		}
		if raw, found := c.GetPostForm("matchScore"); found && raw != "" {
			var score models.MatchScore
			if err := json.Unmarshal([]byte(raw), &score); err != nil {
				writeError(c, utils.E(utils.CodeInvalidArgument, op, "matchScore must be valid JSON", err))
				return
			}
			patch.MatchScore = &score
		}

		var file multipart.File
		var err error
		resume, file, err = h.resumeFromForm(c)
		if err != nil {
			writeError(c, err)
			return
		}
		if file != nil {
			defer file.Close()
		}
	} else {
		if err := c.ShouldBindJSON(&patch); err != nil {
			writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
			return
		}
	}

	out, err := h.svc.Update(c.Request.Context(), userID, id, patch, resume)
	if err != nil {
		writeError(c, err)
		return
	}
	h.logResumeWarning(c, out.ResumeWarning)

	c.JSON(http.StatusOK, out.Application)
}

func (h *ApplicationHandler) Delete(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}

	warn, err := h.svc.Delete(c.Request.Context(), userID, id)
	if err != nil {
		writeError(c, err)
		return
	}
	h.logResumeWarning(c, warn)

	c.JSON(http.StatusOK, gin.H{"message": "application deleted successfully"})
}

func (h *ApplicationHandler) Stats(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	stats, err := h.svc.Stats(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *ApplicationHandler) ResumeURL(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}

	url, err := h.svc.ResumeURL(c.Request.Context(), userID, id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

// resumeFromForm extracts the optional "resume" part. The returned file must
// be closed by the caller once the service has consumed the reader.
func (h *ApplicationHandler) resumeFromForm(c *gin.Context) (*services.ResumeUpload, multipart.File, error) {
	fh, err := c.FormFile("resume")
	if err != nil {
		// absent file is fine; the field is optional
		return nil, nil, nil
	}

	ct := fh.Header.Get("Content-Type")
	if ct == "" {
		ct = mime.TypeByExtension(strings.ToLower(filepath.Ext(fh.Filename)))
	}

	upload := &services.ResumeUpload{
		FileName:    filepath.Base(fh.Filename),
		ContentType: ct,
		Size:        fh.Size,
	}
	if err := services.ValidateResume(upload); err != nil {
		return nil, nil, err
	}

	file, err := fh.Open()
	if err != nil {
		return nil, nil, utils.E(utils.CodeInternal, "ApplicationHandler.resumeFromForm", "failed to open upload", err)
	}
	upload.Reader = file
	return upload, file, nil
}

func (h *ApplicationHandler) logResumeWarning(c *gin.Context, warn error) {
	if warn == nil || h.log == nil {
		return
	}
	reqID, _ := c.Get("request_id")
	h.log.WithFields(logrus.Fields{
		"request_id": reqID,
		"path":       c.FullPath(),
	}).WithError(warn).Warn("resume storage operation failed; request completed without it")
}
