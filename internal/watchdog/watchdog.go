// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// StreamIO FFmpeg - FFmpeg 视频转码编排服务
//
// Package watchdog guards a blocking chunked read against a child process
// that stops producing output.

package watchdog

import (
	"bufio"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// ErrHung is returned by Scan when the source produced no chunk within the
// configured idle window and the target was killed.
var ErrHung = errors.New("process hung: no output received within the timeout")

// Target is the process that gets killed when the stream goes quiet.
// *os.Process satisfies it.
type Target interface {
	Kill() error
}

// Config for a Watchdog
type Config struct {
	Timeout  time.Duration
	Interval time.Duration // patrol granularity, defaults to 100ms
	Target   Target
}

// Watchdog wraps a blocking chunked read. A patrol goroutine compares the
// wall clock against the timestamp of the most recent chunk; once the idle
// window is exceeded the target process is killed forcibly, exactly once.
type Watchdog struct {
	timeout  time.Duration
	interval time.Duration
	target   Target

	// last 为最近一次收到数据的时间戳（纳秒），读循环写、巡检读
	last     atomic.Int64
	timedOut atomic.Bool
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a Watchdog
func New(config Config) (*Watchdog, error) {
	if config.Timeout <= 0 {
		return nil, fmt.Errorf("no valid timeout given")
	}
	if config.Target == nil {
		return nil, fmt.Errorf("no valid target given")
	}

	w := &Watchdog{
		timeout:  config.Timeout,
		interval: config.Interval,
		target:   config.Target,
		done:     make(chan struct{}),
	}
	if w.interval <= 0 {
		w.interval = 100 * time.Millisecond
	}
	return w, nil
}

// Scan drains src, forwarding every chunk to fn. Each chunk resets the idle
// window. When the window is exceeded the target is killed, the blocked read
// unwinds through the closed pipe and Scan returns ErrHung; whatever fn
// accumulated up to that point stays observable to the caller. The patrol
// goroutine is stopped on every exit path.
func (w *Watchdog) Scan(src *bufio.Scanner, fn func(chunk string)) error {
	w.last.Store(time.Now().UnixNano())
	go w.patrol()
	defer w.Stop()

	for src.Scan() {
		w.last.Store(time.Now().UnixNano())
		fn(src.Text())
	}

	if w.timedOut.Load() {
		return ErrHung
	}
	return src.Err()
}

// TimedOut reports whether the patrol killed the target.
func (w *Watchdog) TimedOut() bool {
	return w.timedOut.Load()
}

// Stop halts the patrol goroutine. Safe to call more than once.
func (w *Watchdog) Stop() {
	w.stopOnce.Do(func() { close(w.done) })
}

func (w *Watchdog) patrol() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case t := <-ticker.C:
			last := time.Unix(0, w.last.Load())
			if t.Sub(last) > w.timeout {
				w.timedOut.Store(true)
				w.target.Kill()
				return
			}
		}
	}
}
