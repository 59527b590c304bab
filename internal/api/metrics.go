// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// StreamIO FFmpeg - FFmpeg 视频转码编排服务

package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/advancedcontrol/streamio-ffmpeg/internal/task"
)

var (
	jobsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transcode_jobs_started_total",
		Help: "The total number of transcode jobs started",
	})

	jobsSucceeded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transcode_jobs_succeeded_total",
		Help: "The total number of transcode jobs that finished successfully",
	})

	jobsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transcode_jobs_failed_total",
		Help: "The total number of transcode jobs that failed",
	})

	jobsRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "transcode_jobs_running",
		Help: "The number of transcode jobs currently running",
	})
)

// ObserveStateChange records job state transitions. Wire it into the
// store's OnStateChange hook.
func ObserveStateChange(from, to task.State) {
	if from == task.StateRunning && to != task.StateRunning {
		jobsRunning.Dec()
	}

	switch to {
	case task.StateRunning:
		jobsStarted.Inc()
		jobsRunning.Inc()
	case task.StateSucceeded:
		jobsSucceeded.Inc()
	case task.StateFailed:
		jobsFailed.Inc()
	}
}
