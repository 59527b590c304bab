// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// StreamIO FFmpeg - FFmpeg 视频转码编排服务

package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/advancedcontrol/streamio-ffmpeg/internal/ffmpeg"
	"github.com/advancedcontrol/streamio-ffmpeg/internal/task"
	"github.com/advancedcontrol/streamio-ffmpeg/internal/transcode"
)

// Handler holds dependencies
type Handler struct {
	store  task.Store
	ffmpeg *ffmpeg.FFmpeg
	prober transcode.Prober
}

// NewHandler creates API handler
func NewHandler(store task.Store, ff *ffmpeg.FFmpeg, prober transcode.Prober) *Handler {
	return &Handler{store: store, ffmpeg: ff, prober: prober}
}

func errResp(c *gin.Context, code int, msg, detail string) {
	c.JSON(code, ErrorResponse{Code: code, Message: msg, Detail: detail})
}

// AddJob POST /api/v1/jobs
func (h *Handler) AddJob(c *gin.Context) {
	var req JobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errResp(c, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}

	job, err := h.store.Add(requestToConfig(&req))
	if err != nil {
		switch {
		case errors.Is(err, task.ErrJobExists):
			errResp(c, http.StatusConflict, "Job exists", err.Error())
		case errors.Is(err, task.ErrInvalidInputAddress),
			errors.Is(err, task.ErrInvalidOutputAddress):
			errResp(c, http.StatusBadRequest, "Invalid address", err.Error())
		case errors.Is(err, transcode.ErrInvalidRequest):
			errResp(c, http.StatusBadRequest, "Invalid request", err.Error())
		default:
			errResp(c, http.StatusBadRequest, "Invalid config", err.Error())
		}
		return
	}

	c.JSON(http.StatusOK, jobToResponse(job))
}

// ListJobs GET /api/v1/jobs
func (h *Handler) ListJobs(c *gin.Context) {
	reference := c.DefaultQuery("reference", "")
	idStr := c.DefaultQuery("id", "")

	var ids []string
	if idStr != "" {
		ids = strings.FieldsFunc(idStr, func(r rune) bool { return r == ',' })
		for i := range ids {
			ids[i] = strings.TrimSpace(ids[i])
		}
	}

	jobs := h.store.List(ids, reference)
	out := make([]JobResponse, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, jobToResponse(j))
	}

	c.JSON(http.StatusOK, out)
}

// GetJob GET /api/v1/jobs/:id
func (h *Handler) GetJob(c *gin.Context) {
	job, err := h.store.Get(c.Param("id"))
	if err != nil {
		errResp(c, http.StatusNotFound, "Unknown job ID", err.Error())
		return
	}

	c.JSON(http.StatusOK, jobToResponse(job))
}

// GetJobLog GET /api/v1/jobs/:id/log
func (h *Handler) GetJobLog(c *gin.Context) {
	job, err := h.store.Get(c.Param("id"))
	if err != nil {
		errResp(c, http.StatusNotFound, "Unknown job ID", err.Error())
		return
	}

	c.JSON(http.StatusOK, JobLogResponse{ID: job.ID, Output: job.Output()})
}

// DeleteJob DELETE /api/v1/jobs/:id
func (h *Handler) DeleteJob(c *gin.Context) {
	err := h.store.Delete(c.Param("id"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, "OK")
	case errors.Is(err, task.ErrNotFound):
		errResp(c, http.StatusNotFound, "Unknown job ID", err.Error())
	case errors.Is(err, task.ErrJobRunning):
		errResp(c, http.StatusConflict, "Job is running", err.Error())
	default:
		errResp(c, http.StatusInternalServerError, "Delete failed", err.Error())
	}
}

// Probe POST /api/v1/probe
func (h *Handler) Probe(c *gin.Context) {
	var req ProbeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errResp(c, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}

	m, err := h.prober.Probe(c.Request.Context(), req.Input)
	if err != nil {
		errResp(c, http.StatusInternalServerError, "Probe failed", err.Error())
		return
	}

	c.JSON(http.StatusOK, mediaToProbeResponse(m))
}

// Version GET /api/v1/version
func (h *Handler) Version(c *gin.Context) {
	c.JSON(http.StatusOK, VersionResponse{FFmpeg: h.ffmpeg.Info()})
}
