// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// StreamIO FFmpeg - FFmpeg 视频转码编排服务

package task

import (
	"fmt"
	"time"

	"github.com/advancedcontrol/streamio-ffmpeg/internal/transcode"
)

// Config for a transcode job. Options and RawOptions are mutually
// exclusive; TimeoutSeconds < 0 disables the idle watchdog for this job.
type Config struct {
	ID                  string            `json:"id"`
	Reference           string            `json:"reference"`
	Input               string            `json:"input"`
	Output              string            `json:"output"`
	Options             map[string]string `json:"options"`
	RawOptions          string            `json:"raw_options"`
	Autorotate          bool              `json:"autorotate"`
	PreserveAspectRatio string            `json:"preserve_aspect_ratio"`
	SkipValidation      bool              `json:"skip_validation"`
	TimeoutSeconds      int64             `json:"timeout_seconds"`
}

func (c *Config) buildOptions() (transcode.Options, error) {
	if c.RawOptions != "" {
		if len(c.Options) > 0 {
			return transcode.Options{}, fmt.Errorf("%w: both raw and structured options given", transcode.ErrInvalidRequest)
		}
		return transcode.RawOptions(c.RawOptions), nil
	}
	return transcode.StructuredOptions(c.Options)
}

func (c *Config) timeout() time.Duration {
	if c.TimeoutSeconds < 0 {
		return transcode.NoTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}
