// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// StreamIO FFmpeg - FFmpeg 视频转码编排服务

package task

import (
	"context"
	"testing"
	"time"

	"github.com/advancedcontrol/streamio-ffmpeg/internal/ffmpeg"
	"github.com/advancedcontrol/streamio-ffmpeg/internal/media"
	"github.com/advancedcontrol/streamio-ffmpeg/internal/monitor"
	"github.com/advancedcontrol/streamio-ffmpeg/internal/transcode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProber struct{}

func (p *fakeProber) Probe(ctx context.Context, path string) (*media.Media, error) {
	return &media.Media{Path: path, Format: media.Format{Duration: "10.0"}}, nil
}

type fakeRunner struct {
	artifacts []transcode.Artifact
	err       error
	block     chan struct{} // when set, Transcode waits until closed
}

func (r *fakeRunner) Transcode(ctx context.Context, req transcode.Request, observer func(float64)) ([]transcode.Artifact, error) {
	observer(0.0)
	if r.block != nil {
		<-r.block
	}
	if r.err != nil {
		return nil, r.err
	}
	observer(1.0)
	return r.artifacts, nil
}

func newTestStore(t *testing.T, runner *fakeRunner, config StoreConfig) Store {
	t.Helper()
	config.Factory = func(m monitor.Monitor) (Runner, error) { return runner, nil }
	config.Prober = &fakeProber{}
	s, err := NewStore(config)
	require.NoError(t, err)
	return s
}

func waitState(t *testing.T, job *Job, want State) {
	t.Helper()
	require.Eventually(t, func() bool { return job.State() == want },
		2*time.Second, 5*time.Millisecond, "job never reached %s", want)
}

func TestAddRunsJobToSuccess(t *testing.T) {
	runner := &fakeRunner{artifacts: []transcode.Artifact{{Path: "out.mp4", Valid: true}}}
	s := newTestStore(t, runner, StoreConfig{})

	job, err := s.Add(&Config{Input: "in.mov", Output: "out.mp4"})
	require.NoError(t, err)
	require.NotEmpty(t, job.ID)

	waitState(t, job, StateSucceeded)
	assert.Equal(t, 1.0, job.Progress())
	require.Len(t, job.Artifacts(), 1)
	assert.Equal(t, "out.mp4", job.Artifacts()[0].Path)
	assert.NotZero(t, job.FinishedAt())
	assert.False(t, job.IsRunning())
}

func TestAddRunsJobToFailure(t *testing.T) {
	runner := &fakeRunner{err: &transcode.ProcessError{
		Command: "ffmpeg -y", Output: "boom output", ExitCode: 1, Exited: true,
	}}
	s := newTestStore(t, runner, StoreConfig{})

	job, err := s.Add(&Config{Input: "in.mov", Output: "out.mp4"})
	require.NoError(t, err)

	waitState(t, job, StateFailed)
	assert.Equal(t, "ffmpeg exited with status 1", job.Failure())
	assert.Equal(t, "boom output", job.Output())
	assert.Empty(t, job.Artifacts())
}

func TestAddRejectsBadConfig(t *testing.T) {
	s := newTestStore(t, &fakeRunner{}, StoreConfig{})

	_, err := s.Add(&Config{Output: "out.mp4"})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = s.Add(&Config{Input: "in.mov"})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = s.Add(&Config{Input: "in.mov", Output: "out.mp4", Options: map[string]string{"": "x"}})
	assert.ErrorIs(t, err, transcode.ErrInvalidRequest)

	_, err = s.Add(&Config{Input: "in.mov", Output: "out.mp4", RawOptions: "-an", Options: map[string]string{"s": "1x1"}})
	assert.ErrorIs(t, err, transcode.ErrInvalidRequest)
}

func TestAddRejectsDuplicateID(t *testing.T) {
	s := newTestStore(t, &fakeRunner{}, StoreConfig{})

	_, err := s.Add(&Config{ID: "dup", Input: "in.mov", Output: "out.mp4"})
	require.NoError(t, err)

	_, err = s.Add(&Config{ID: "dup", Input: "in.mov", Output: "other.mp4"})
	assert.ErrorIs(t, err, ErrJobExists)
}

func TestAddAppliesAddressValidators(t *testing.T) {
	blockTmp, err := ffmpeg.NewValidator(nil, []string{`^/tmp/`})
	require.NoError(t, err)

	s := newTestStore(t, &fakeRunner{}, StoreConfig{ValidatorInput: blockTmp})

	_, err = s.Add(&Config{Input: "/tmp/in.mov", Output: "out.mp4"})
	assert.ErrorIs(t, err, ErrInvalidInputAddress)

	s = newTestStore(t, &fakeRunner{}, StoreConfig{ValidatorOutput: blockTmp})
	_, err = s.Add(&Config{Input: "in.mov", Output: "/tmp/out.mp4"})
	assert.ErrorIs(t, err, ErrInvalidOutputAddress)
}

func TestDeleteRefusesRunningJob(t *testing.T) {
	runner := &fakeRunner{block: make(chan struct{})}
	s := newTestStore(t, runner, StoreConfig{})

	job, err := s.Add(&Config{ID: "busy", Input: "in.mov", Output: "out.mp4"})
	require.NoError(t, err)
	waitState(t, job, StateRunning)

	assert.ErrorIs(t, s.Delete("busy"), ErrJobRunning)

	close(runner.block)
	waitState(t, job, StateSucceeded)
	assert.NoError(t, s.Delete("busy"))

	_, err = s.Get("busy")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListFilters(t *testing.T) {
	s := newTestStore(t, &fakeRunner{}, StoreConfig{})

	a, err := s.Add(&Config{ID: "a", Reference: "batch1", Input: "in.mov", Output: "a.mp4"})
	require.NoError(t, err)
	_, err = s.Add(&Config{ID: "b", Reference: "batch2", Input: "in.mov", Output: "b.mp4"})
	require.NoError(t, err)

	assert.Len(t, s.List(nil, ""), 2)
	assert.Len(t, s.List(nil, "batch1"), 1)
	assert.Len(t, s.List([]string{"b"}, ""), 1)
	assert.Empty(t, s.List([]string{"b"}, "batch1"))

	got := s.List([]string{"a"}, "batch1")
	require.Len(t, got, 1)
	assert.Equal(t, a.ID, got[0].ID)
}

func TestStateChangeCallback(t *testing.T) {
	var mu []State
	done := make(chan struct{})
	cfg := StoreConfig{OnStateChange: func(from, to State) {
		mu = append(mu, to)
		if to == StateSucceeded {
			close(done)
		}
	}}

	s := newTestStore(t, &fakeRunner{}, cfg)
	_, err := s.Add(&Config{Input: "in.mov", Output: "out.mp4"})
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("state callback never fired")
	}
	assert.Equal(t, []State{StateRunning, StateSucceeded}, mu)
}
