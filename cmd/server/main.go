// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// StreamIO FFmpeg - FFmpeg 视频转码编排服务

package main

import (
	"flag"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/advancedcontrol/streamio-ffmpeg/internal/api"
	"github.com/advancedcontrol/streamio-ffmpeg/internal/config"
	"github.com/advancedcontrol/streamio-ffmpeg/internal/ffmpeg"
	"github.com/advancedcontrol/streamio-ffmpeg/internal/logger"
	"github.com/advancedcontrol/streamio-ffmpeg/internal/media"
	"github.com/advancedcontrol/streamio-ffmpeg/internal/monitor"
	"github.com/advancedcontrol/streamio-ffmpeg/internal/task"
	"github.com/advancedcontrol/streamio-ffmpeg/internal/transcode"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	bind := flag.String("bind", "", "Bind address (overrides config)")
	ffmpegBin := flag.String("ffmpeg", "", "FFmpeg binary path (overrides config)")
	ffprobeBin := flag.String("ffprobe", "", "FFprobe binary path (overrides config)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("Load config: %v", err)
		}
	}

	bindAddr := cfg.Server.Bind
	if *bind != "" {
		bindAddr = *bind
	}
	ffmpegPath := cfg.FFmpeg.Path
	if *ffmpegBin != "" {
		ffmpegPath = *ffmpegBin
	}
	ffprobePath := cfg.FFmpeg.ProbePath
	if *ffprobeBin != "" {
		ffprobePath = *ffprobeBin
	}

	logger := logger.New("streamio-ffmpeg")

	ff, err := ffmpeg.New(ffmpegPath)
	if err != nil {
		log.Fatalf("FFmpeg init: %v", err)
	}
	logger.Info("using ffmpeg %s at %s", ff.Info().Version, ff.Binary())

	prober, err := media.NewProber(ffprobePath)
	if err != nil {
		log.Fatalf("FFprobe init: %v", err)
	}

	validatorIn, err := ffmpeg.NewValidator(cfg.FFmpeg.InputAllow, cfg.FFmpeg.InputBlock)
	if err != nil {
		log.Fatalf("Input validator: %v", err)
	}
	validatorOut, err := ffmpeg.NewValidator(cfg.FFmpeg.OutputAllow, cfg.FFmpeg.OutputBlock)
	if err != nil {
		log.Fatalf("Output validator: %v", err)
	}

	staleTimeout := time.Duration(cfg.Transcode.StaleTimeoutSeconds) * time.Second

	// 每个任务一个 transcoder 实例，绑定各自的进程监视器
	factory := func(m monitor.Monitor) (task.Runner, error) {
		return transcode.New(transcode.Config{
			Binary:         ff.Binary(),
			DefaultTimeout: staleTimeout,
			Prober:         prober,
			Monitor:        m,
			Logger:         logger,
		})
	}

	store, err := task.NewStore(task.StoreConfig{
		Factory:         factory,
		Prober:          prober,
		ValidatorInput:  validatorIn,
		ValidatorOutput: validatorOut,
		NewMonitor:      monitor.NewSystem,
		Logger:          logger,
		OnStateChange:   api.ObserveStateChange,
	})
	if err != nil {
		log.Fatalf("Store init: %v", err)
	}

	handler := api.NewHandler(store, ff, prober)

	r := gin.Default()
	r.Use(gin.Recovery(), cors.Default())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	{
		v1.GET("/version", handler.Version)
		v1.POST("/probe", handler.Probe)

		v1.GET("/jobs", handler.ListJobs)
		v1.POST("/jobs", handler.AddJob)
		v1.GET("/jobs/:id", handler.GetJob)
		v1.GET("/jobs/:id/log", handler.GetJobLog)
		v1.DELETE("/jobs/:id", handler.DeleteJob)
	}

	log.Printf("StreamIO FFmpeg listening on %s", bindAddr)
	if err := r.Run(bindAddr); err != nil {
		log.Fatalf("Server: %v", err)
	}
}
