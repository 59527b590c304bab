// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// StreamIO FFmpeg - FFmpeg 视频转码编排服务
//
// Package monitor samples resource usage of a running child process.

package monitor

// Monitor is attached to the transcoding child process for the duration of
// one run. NullMonitor does nothing.
type Monitor interface {
	Start(pid int) error
	Stop()
	Current() (cpu float64, memory uint64)
}

type nullMonitor struct{}

// NewNull returns a no-op monitor
func NewNull() Monitor {
	return &nullMonitor{}
}

func (m *nullMonitor) Start(pid int) error          { return nil }
func (m *nullMonitor) Stop()                        {}
func (m *nullMonitor) Current() (float64, uint64)   { return 0, 0 }
