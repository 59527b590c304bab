// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// StreamIO FFmpeg - FFmpeg 视频转码编排服务
//
// Package transcode orchestrates one ffmpeg invocation: it derives encoding
// parameters from the source metadata, streams the diagnostic output
// through the idle watchdog into the progress parser, classifies the exit
// and validates what was produced.

package transcode

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"syscall"
	"time"

	"github.com/advancedcontrol/streamio-ffmpeg/internal/logger"
	"github.com/advancedcontrol/streamio-ffmpeg/internal/media"
	"github.com/advancedcontrol/streamio-ffmpeg/internal/monitor"
	"github.com/advancedcontrol/streamio-ffmpeg/internal/watchdog"
)

// Artifact describes one produced output file.
type Artifact struct {
	Path  string `json:"path"`
	Valid bool   `json:"valid"`
}

// Prober re-inspects produced files; *media.Prober implements it.
type Prober interface {
	Probe(ctx context.Context, path string) (*media.Media, error)
}

// Config for a Transcoder. DefaultTimeout is the idle watchdog window
// applied when a request does not carry its own; 0 disables it.
type Config struct {
	Binary         string
	DefaultTimeout time.Duration
	Prober         Prober
	Monitor        monitor.Monitor
	Logger         logger.Logger
}

// Transcoder runs one ffmpeg invocation per Transcode call. An instance
// must not be used for concurrent runs; each run gets its own monitor
// attachment.
type Transcoder struct {
	binary  string
	timeout time.Duration
	prober  Prober
	monitor monitor.Monitor
	logger  logger.Logger
}

// New creates a Transcoder
func New(config Config) (*Transcoder, error) {
	if len(config.Binary) == 0 {
		return nil, fmt.Errorf("no valid binary given")
	}
	if config.Prober == nil {
		return nil, fmt.Errorf("no valid prober given")
	}

	t := &Transcoder{
		binary:  config.Binary,
		timeout: config.DefaultTimeout,
		prober:  config.Prober,
		monitor: config.Monitor,
		logger:  config.Logger,
	}
	if t.monitor == nil {
		t.monitor = monitor.NewNull()
	}
	if t.logger == nil {
		t.logger = logger.NewNop()
	}
	return t, nil
}

// Transcode runs ffmpeg for the request, reporting fractional progress to
// observer (first 0.0 once the process starts, last 1.0 only on validated
// success, unclamped in between). On success it returns the validated
// artifacts, or nil when validation was skipped.
func (t *Transcoder) Transcode(ctx context.Context, req Request, observer func(float64)) ([]Artifact, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if observer == nil {
		observer = func(float64) {}
	}

	var rotation []string
	swapped := false
	if req.Autorotate {
		rotation, swapped = deriveRotationOptions(req.Source)
	}
	opts, err := deriveAspectOptions(req.Source, req.Options, req.PreserveAspect, swapped)
	if err != nil {
		return nil, err
	}

	args := []string{"-y", "-i", req.Source.Path}
	args = append(args, rotation...)
	args = append(args, opts.Args()...)
	args = append(args, req.Destination)

	cmd := exec.Command(t.binary, args...)
	command := cmd.String()

	// stdout 不使用，诊断信息全部在 stderr
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("open stderr: %w", err)
	}

	t.logger.Debug("running %s", command)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	t.monitor.Start(cmd.Process.Pid)
	defer t.monitor.Stop()

	duration := req.Source.Duration()
	var output strings.Builder
	observer(0.0)

	consume := func(chunk string) {
		chunk = repairEncoding(chunk)
		output.WriteString(chunk)
		if strings.Contains(chunk, "time=") {
			observer(fraction(parseElapsed(chunk), duration))
		}
	}

	scanner := bufio.NewScanner(stderr)
	scanner.Split(scanStatus)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if timeout := req.timeout(t.timeout); timeout > 0 {
		wd, err := watchdog.New(watchdog.Config{Timeout: timeout, Target: cmd.Process})
		if err != nil {
			cmd.Process.Kill()
			cmd.Wait()
			return nil, err
		}
		if err := wd.Scan(scanner, consume); err != nil {
			cmd.Wait() // reap the child before reporting
			if wd.TimedOut() {
				t.logger.Error("transcode hung after %s", timeout)
				return nil, &HungProcessError{Command: command, Output: output.String(), Timeout: timeout}
			}
			return nil, fmt.Errorf("read ffmpeg output: %w", err)
		}
	} else {
		for scanner.Scan() {
			consume(scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			cmd.Wait()
			return nil, fmt.Errorf("read ffmpeg output: %w", err)
		}
	}

	if err := cmd.Wait(); err != nil {
		if exiterr, ok := err.(*exec.ExitError); ok {
			if status, ok := exiterr.Sys().(syscall.WaitStatus); ok && status.Exited() {
				return nil, &ProcessError{Command: command, Output: output.String(), ExitCode: status.ExitStatus(), Exited: true}
			}
		}
		return nil, &ProcessError{Command: command, Output: output.String()}
	}

	if req.SkipValidation {
		return nil, nil
	}

	artifacts, reasons := t.validateOutputs(ctx, req.Destination)
	if len(reasons) > 0 {
		return nil, &ValidationError{Command: command, Output: output.String(), Reasons: reasons}
	}

	observer(1.0)
	return artifacts, nil
}

// seqPattern matches printf-style sequence placeholders like %03d in
// segmented destination paths.
var seqPattern = regexp.MustCompile(`%\d*d`)

// validateOutputs expands a sequence destination into concrete files (at
// most once, after the child has exited) and re-probes every produced path.
func (t *Transcoder) validateOutputs(ctx context.Context, destination string) ([]Artifact, []string) {
	paths := []string{destination}
	if seqPattern.MatchString(destination) {
		matches, err := filepath.Glob(seqPattern.ReplaceAllString(destination, "*"))
		if err != nil || len(matches) == 0 {
			return nil, []string{"no output file created"}
		}
		paths = matches
	}

	var artifacts []Artifact
	var reasons []string
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			reasons = append(reasons, "no output file created")
			continue
		}
		probed, err := t.prober.Probe(ctx, path)
		if err != nil || !probed.Valid() {
			reasons = append(reasons, "encoded file is invalid")
			continue
		}
		artifacts = append(artifacts, Artifact{Path: path, Valid: true})
	}

	if len(reasons) > 0 {
		return nil, reasons
	}
	return artifacts, nil
}
