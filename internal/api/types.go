// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// StreamIO FFmpeg - FFmpeg 视频转码编排服务

package api

import (
	"github.com/advancedcontrol/streamio-ffmpeg/internal/ffmpeg"
	"github.com/advancedcontrol/streamio-ffmpeg/internal/media"
	"github.com/advancedcontrol/streamio-ffmpeg/internal/task"
	"github.com/advancedcontrol/streamio-ffmpeg/internal/transcode"
)

// JobRequest creates a transcode job. Options and RawOptions are mutually
// exclusive. Validate defaults to true when omitted.
type JobRequest struct {
	ID                  string            `json:"id"`
	Reference           string            `json:"reference"`
	Input               string            `json:"input" binding:"required"`
	Output              string            `json:"output" binding:"required"`
	Options             map[string]string `json:"options"`
	RawOptions          string            `json:"raw_options"`
	Autorotate          bool              `json:"autorotate"`
	PreserveAspectRatio string            `json:"preserve_aspect_ratio"`
	Validate            *bool             `json:"validate"`
	TimeoutSeconds      int64             `json:"timeout_seconds"`
}

// JobResponse describes one job
type JobResponse struct {
	ID         string               `json:"id"`
	Reference  string               `json:"reference"`
	State      string               `json:"state"`
	Progress   float64              `json:"progress"`
	Input      string               `json:"input"`
	Output     string               `json:"output"`
	CreatedAt  int64                `json:"created_at"`
	FinishedAt int64                `json:"finished_at,omitempty"`
	Failure    string               `json:"failure,omitempty"`
	Artifacts  []transcode.Artifact `json:"artifacts,omitempty"`
	Memory     uint64               `json:"memory_bytes"`
	CPU        float64              `json:"cpu_usage"`
}

// JobLogResponse carries the ffmpeg output captured before a failure
type JobLogResponse struct {
	ID     string `json:"id"`
	Output string `json:"output"`
}

// ProbeRequest for media inspection
type ProbeRequest struct {
	Input string `json:"input" binding:"required"`
}

// ProbeResponse summarizes a probed file along with the raw metadata
type ProbeResponse struct {
	Valid       bool         `json:"valid"`
	Duration    float64      `json:"duration_seconds"`
	Rotation    int          `json:"rotation"`
	AspectRatio float64      `json:"aspect_ratio"`
	Media       *media.Media `json:"media"`
}

// VersionResponse reports the detected ffmpeg build
type VersionResponse struct {
	FFmpeg ffmpeg.Info `json:"ffmpeg"`
}

// ErrorResponse for API errors
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func requestToConfig(req *JobRequest) *task.Config {
	cfg := &task.Config{
		ID:                  req.ID,
		Reference:           req.Reference,
		Input:               req.Input,
		Output:              req.Output,
		Options:             req.Options,
		RawOptions:          req.RawOptions,
		Autorotate:          req.Autorotate,
		PreserveAspectRatio: req.PreserveAspectRatio,
		TimeoutSeconds:      req.TimeoutSeconds,
	}
	if req.Validate != nil && !*req.Validate {
		cfg.SkipValidation = true
	}
	return cfg
}

func jobToResponse(j *task.Job) JobResponse {
	cpu, memory := j.Usage()
	return JobResponse{
		ID:         j.ID,
		Reference:  j.Reference,
		State:      string(j.State()),
		Progress:   j.Progress(),
		Input:      j.Config.Input,
		Output:     j.Config.Output,
		CreatedAt:  j.CreatedAt,
		FinishedAt: j.FinishedAt(),
		Failure:    j.Failure(),
		Artifacts:  j.Artifacts(),
		Memory:     memory,
		CPU:        cpu,
	}
}

func mediaToProbeResponse(m *media.Media) ProbeResponse {
	return ProbeResponse{
		Valid:       m.Valid(),
		Duration:    m.Duration(),
		Rotation:    m.Rotation(),
		AspectRatio: m.CalculatedAspectRatio(),
		Media:       m,
	}
}
