// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// StreamIO FFmpeg - FFmpeg 视频转码编排服务
//
// Package task tracks one-shot transcode jobs. Every accepted job runs on
// its own goroutine with its own transcoder instance.

package task

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/advancedcontrol/streamio-ffmpeg/internal/ffmpeg"
	"github.com/advancedcontrol/streamio-ffmpeg/internal/logger"
	"github.com/advancedcontrol/streamio-ffmpeg/internal/monitor"
	"github.com/advancedcontrol/streamio-ffmpeg/internal/transcode"

	"github.com/lithammer/shortuuid/v4"
)

// State of a job
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Job is one transcode run and its observable state.
type Job struct {
	ID        string
	Reference string
	Config    *Config
	CreatedAt int64

	monitor monitor.Monitor

	mu         sync.RWMutex
	state      State
	progress   float64
	artifacts  []transcode.Artifact
	failure    string
	output     string
	finishedAt int64
}

// State returns the current job state
func (j *Job) State() State {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.state
}

// IsRunning reports whether the job has not finished yet
func (j *Job) IsRunning() bool {
	s := j.State()
	return s == StatePending || s == StateRunning
}

// Progress returns the last reported completion fraction
func (j *Job) Progress() float64 {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.progress
}

// Artifacts returns the validated output files of a succeeded job
func (j *Job) Artifacts() []transcode.Artifact {
	j.mu.RLock()
	defer j.mu.RUnlock()
	out := make([]transcode.Artifact, len(j.artifacts))
	copy(out, j.artifacts)
	return out
}

// Failure returns the failure reason of a failed job
func (j *Job) Failure() string {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.failure
}

// Output returns the ffmpeg output accumulated before a failure
func (j *Job) Output() string {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.output
}

// FinishedAt returns the unix timestamp of completion, 0 while running
func (j *Job) FinishedAt() int64 {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.finishedAt
}

// Usage returns CPU and memory of the running child process
func (j *Job) Usage() (cpu float64, memory uint64) {
	return j.monitor.Current()
}

func (j *Job) setProgress(f float64) {
	j.mu.Lock()
	j.progress = f
	j.mu.Unlock()
}

// Runner executes one transcode; *transcode.Transcoder implements it.
type Runner interface {
	Transcode(ctx context.Context, req transcode.Request, observer func(float64)) ([]transcode.Artifact, error)
}

// Factory builds the Runner for one job, bound to that job's monitor. A
// transcoder instance serves a single run.
type Factory func(m monitor.Monitor) (Runner, error)

// Store manages jobs in memory
type Store interface {
	Add(config *Config) (*Job, error)
	Get(id string) (*Job, error)
	List(ids []string, reference string) []*Job
	Delete(id string) error
}

// StoreConfig for creating a Store
type StoreConfig struct {
	Factory         Factory
	Prober          transcode.Prober
	ValidatorInput  ffmpeg.Validator
	ValidatorOutput ffmpeg.Validator
	NewMonitor      func() monitor.Monitor
	Logger          logger.Logger
	OnStateChange   func(from, to State)
}

type store struct {
	factory       Factory
	prober        transcode.Prober
	validatorIn   ffmpeg.Validator
	validatorOut  ffmpeg.Validator
	newMonitor    func() monitor.Monitor
	logger        logger.Logger
	onStateChange func(from, to State)

	jobs map[string]*Job
	mu   sync.RWMutex
}

// NewStore creates a job store
func NewStore(config StoreConfig) (Store, error) {
	if config.Factory == nil {
		return nil, fmt.Errorf("no valid factory given")
	}
	if config.Prober == nil {
		return nil, fmt.Errorf("no valid prober given")
	}

	s := &store{
		factory:       config.Factory,
		prober:        config.Prober,
		validatorIn:   config.ValidatorInput,
		validatorOut:  config.ValidatorOutput,
		newMonitor:    config.NewMonitor,
		logger:        config.Logger,
		onStateChange: config.OnStateChange,
		jobs:          make(map[string]*Job),
	}

	if s.validatorIn == nil {
		s.validatorIn, _ = ffmpeg.NewValidator(nil, nil)
	}
	if s.validatorOut == nil {
		s.validatorOut, _ = ffmpeg.NewValidator(nil, nil)
	}
	if s.newMonitor == nil {
		s.newMonitor = monitor.NewNull
	}
	if s.logger == nil {
		s.logger = logger.NewNop()
	}
	return s, nil
}

func (s *store) Add(config *Config) (*Job, error) {
	if len(config.ID) == 0 {
		config.ID = shortuuid.New()
	}
	if len(config.Input) == 0 || len(config.Output) == 0 {
		return nil, ErrInvalidConfig
	}
	if !s.validatorIn.IsValid(config.Input) {
		return nil, ErrInvalidInputAddress
	}
	if !s.validatorOut.IsValid(config.Output) {
		return nil, ErrInvalidOutputAddress
	}

	options, err := config.buildOptions()
	if err != nil {
		return nil, err
	}

	// 先探测源文件，再入队
	source, err := s.prober.Probe(context.Background(), config.Input)
	if err != nil {
		return nil, err
	}

	req := transcode.Request{
		Source:         source,
		Destination:    config.Output,
		Options:        options,
		Autorotate:     config.Autorotate,
		PreserveAspect: transcode.AspectMode(config.PreserveAspectRatio),
		SkipValidation: config.SkipValidation,
		Timeout:        config.timeout(),
	}

	job := &Job{
		ID:        config.ID,
		Reference: config.Reference,
		Config:    config,
		CreatedAt: time.Now().Unix(),
		monitor:   s.newMonitor(),
		state:     StatePending,
	}

	s.mu.Lock()
	if _, exists := s.jobs[config.ID]; exists {
		s.mu.Unlock()
		return nil, ErrJobExists
	}
	s.jobs[config.ID] = job
	s.mu.Unlock()

	go s.run(job, req)

	return job, nil
}

func (s *store) run(job *Job, req transcode.Request) {
	s.setState(job, StateRunning)
	s.logger.Info("job %s started: %s -> %s", job.ID, req.Source.Path, req.Destination)

	runner, err := s.factory(job.monitor)
	if err != nil {
		s.fail(job, err)
		return
	}

	artifacts, err := runner.Transcode(context.Background(), req, job.setProgress)
	if err != nil {
		s.fail(job, err)
		return
	}

	job.mu.Lock()
	job.artifacts = artifacts
	job.progress = 1.0
	job.finishedAt = time.Now().Unix()
	job.mu.Unlock()

	s.setState(job, StateSucceeded)
	s.logger.Info("job %s succeeded with %d artifact(s)", job.ID, len(artifacts))
}

func (s *store) fail(job *Job, err error) {
	reason, output := classify(err)

	job.mu.Lock()
	job.failure = reason
	job.output = output
	job.finishedAt = time.Now().Unix()
	job.mu.Unlock()

	s.setState(job, StateFailed)
	s.logger.Error("job %s failed: %s", job.ID, reason)
}

func (s *store) setState(job *Job, state State) {
	job.mu.Lock()
	prev := job.state
	job.state = state
	job.mu.Unlock()

	if s.onStateChange != nil {
		s.onStateChange(prev, state)
	}
}

// classify splits a transcode error into a short reason and the ffmpeg
// output it carries.
func classify(err error) (reason, output string) {
	var herr *transcode.HungProcessError
	var perr *transcode.ProcessError
	var verr *transcode.ValidationError

	switch {
	case errors.As(err, &herr):
		return fmt.Sprintf("process hung: no output within %s", herr.Timeout), herr.Output
	case errors.As(err, &perr):
		if perr.Exited {
			return fmt.Sprintf("ffmpeg exited with status %d", perr.ExitCode), perr.Output
		}
		return "ffmpeg terminated prematurely", perr.Output
	case errors.As(err, &verr):
		return "validation failed: " + strings.Join(verr.Reasons, ", "), verr.Output
	}
	return err.Error(), ""
}

func (s *store) Get(id string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return j, nil
}

func (s *store) List(ids []string, reference string) []*Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Job
	for _, j := range s.jobs {
		if len(reference) > 0 && j.Reference != reference {
			continue
		}
		if len(ids) > 0 {
			found := false
			for _, id := range ids {
				if j.ID == id {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		out = append(out, j)
	}
	return out
}

func (s *store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	// 运行中的任务无法取消，只能等它结束
	if j.IsRunning() {
		return ErrJobRunning
	}
	delete(s.jobs, id)
	return nil
}
