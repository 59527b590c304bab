// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// StreamIO FFmpeg - FFmpeg 视频转码编排服务

package transcode

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidRequest reports a malformed request, rejected before any
// process is spawned.
var ErrInvalidRequest = errors.New("invalid transcode request")

// ProcessError reports an ffmpeg run that terminated without success.
// Exited is false when the process never reached a clean exit (killed or
// vanished).
type ProcessError struct {
	Command  string
	Output   string
	ExitCode int
	Exited   bool
}

func (e *ProcessError) Error() string {
	if !e.Exited {
		return fmt.Sprintf("ffmpeg terminated prematurely (command: %s) output: %s", e.Command, e.Output)
	}
	return fmt.Sprintf("ffmpeg exited with status %d (command: %s) output: %s", e.ExitCode, e.Command, e.Output)
}

// HungProcessError reports a run aborted because ffmpeg produced no
// diagnostic output within the idle window. Output holds everything
// accumulated before the kill.
type HungProcessError struct {
	Command string
	Output  string
	Timeout time.Duration
}

func (e *HungProcessError) Error() string {
	return fmt.Sprintf("ffmpeg hung: no output within %s (command: %s) output: %s", e.Timeout, e.Command, e.Output)
}

// ValidationError reports a run that exited cleanly but whose output files
// are missing or failed the re-probe.
type ValidationError struct {
	Command string
	Output  string
	Reasons []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("transcoding failed: %s (command: %s) output: %s", strings.Join(e.Reasons, ", "), e.Command, e.Output)
}
