// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// StreamIO FFmpeg - FFmpeg 视频转码编排服务

package task

import "errors"

var (
	ErrNotFound             = errors.New("job not found")
	ErrJobExists            = errors.New("job already exists")
	ErrJobRunning           = errors.New("job is still running")
	ErrInvalidConfig        = errors.New("invalid config: input and output required")
	ErrInvalidInputAddress  = errors.New("invalid input address")
	ErrInvalidOutputAddress = errors.New("invalid output address")
)
