// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// StreamIO FFmpeg - FFmpeg 视频转码编排服务

package transcode

import (
	"fmt"
	"math"

	"github.com/advancedcontrol/streamio-ffmpeg/internal/media"
)

// AspectMode selects which requested dimension is kept when preserving the
// source aspect ratio.
type AspectMode string

const (
	AspectNone   AspectMode = ""
	AspectWidth  AspectMode = "width"
	AspectHeight AspectMode = "height"
)

// deriveRotationOptions clears the container rotation flag and injects the
// transform filter matching the source rotation. swapped reports whether
// the correction exchanges the effective width and height.
func deriveRotationOptions(m *media.Media) (delta []string, swapped bool) {
	switch m.Rotation() {
	case 90:
		return []string{"-metadata:s:v", "rotate=0", "-vf", "transpose=1"}, true
	case 180:
		return []string{"-metadata:s:v", "rotate=0", "-vf", "hflip,vflip"}, false
	case 270:
		return []string{"-metadata:s:v", "rotate=0", "-vf", "transpose=2"}, true
	}
	return nil, false
}

// deriveAspectOptions recomputes the requested resolution so the source
// aspect ratio is preserved. swapped inverts the ratio when a rotation
// correction exchanged the orientation. Sources without a known aspect
// ratio pass through unchanged.
func deriveAspectOptions(m *media.Media, opts Options, mode AspectMode, swapped bool) (Options, error) {
	if mode == AspectNone {
		return opts, nil
	}

	aspect := m.CalculatedAspectRatio()
	if aspect == 0 {
		return opts, nil
	}
	if swapped {
		aspect = 1 / aspect
	}

	width, height, ok := opts.Resolution()
	if !ok {
		return opts, fmt.Errorf("%w: preserve aspect ratio needs structured options with a resolution", ErrInvalidRequest)
	}

	switch mode {
	case AspectWidth:
		height = evenize(float64(width) / aspect)
	case AspectHeight:
		width = evenize(float64(height) * aspect)
	}
	return opts.withResolution(width, height), nil
}

// evenize rounds a dimension to the nearest even integer: the ceiling when
// it is even, otherwise the floor, bumped by one if still odd. Encoders
// reject odd dimensions.
func evenize(x float64) int {
	n := int(math.Ceil(x))
	if n%2 != 0 {
		n = int(math.Floor(x))
	}
	if n%2 != 0 {
		n++
	}
	return n
}
