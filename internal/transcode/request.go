// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// StreamIO FFmpeg - FFmpeg 视频转码编排服务

package transcode

import (
	"fmt"
	"strings"
	"time"

	"github.com/advancedcontrol/streamio-ffmpeg/internal/media"
)

// NoTimeout disables the idle watchdog for one request even when the
// transcoder carries a default timeout.
const NoTimeout = time.Duration(-1)

// Request describes a single transcode invocation. It is consumed once and
// not mutated; the derived option set is built from a copy.
type Request struct {
	Source         *media.Media
	Destination    string
	Options        Options
	Autorotate     bool
	PreserveAspect AspectMode
	SkipValidation bool
	Timeout        time.Duration // 0 inherits the transcoder default
}

func (r Request) validate() error {
	if r.Source == nil {
		return fmt.Errorf("%w: no source media given", ErrInvalidRequest)
	}
	if strings.TrimSpace(r.Source.Path) == "" {
		return fmt.Errorf("%w: source media has no path", ErrInvalidRequest)
	}
	if strings.TrimSpace(r.Destination) == "" {
		return fmt.Errorf("%w: no destination given", ErrInvalidRequest)
	}
	switch r.PreserveAspect {
	case AspectNone, AspectWidth, AspectHeight:
	default:
		return fmt.Errorf("%w: unknown aspect mode %q", ErrInvalidRequest, r.PreserveAspect)
	}
	if r.PreserveAspect != AspectNone && !r.Options.Structured() {
		return fmt.Errorf("%w: preserve aspect ratio needs structured options", ErrInvalidRequest)
	}
	return nil
}

// timeout resolves the effective idle timeout for this request.
func (r Request) timeout(def time.Duration) time.Duration {
	if r.Timeout == NoTimeout {
		return 0
	}
	if r.Timeout > 0 {
		return r.Timeout
	}
	return def
}
