// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// StreamIO FFmpeg - FFmpeg 视频转码编排服务
//
// Package ffmpeg resolves the transcoding binary and probes its build info.

package ffmpeg

import (
	"fmt"
	"os/exec"
)

// FFmpeg holds the resolved binary and its detected build info.
type FFmpeg struct {
	binary string
	info   Info
}

// New resolves the binary and probes its version. A binary whose version
// cannot be parsed is rejected.
func New(binary string) (*FFmpeg, error) {
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("invalid ffmpeg binary: %w", err)
	}

	info, err := probeVersion(path)
	if err != nil {
		return nil, fmt.Errorf("invalid ffmpeg: %w", err)
	}

	return &FFmpeg{binary: path, info: info}, nil
}

// Binary returns the resolved binary path
func (f *FFmpeg) Binary() string {
	return f.binary
}

// Info returns the detected build info
func (f *FFmpeg) Info() Info {
	return f.info
}
