// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// StreamIO FFmpeg - FFmpeg 视频转码编排服务

package transcode

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseElapsed(t *testing.T) {
	var tests = []struct {
		chunk string
		want  float64
	}{
		{"frame= 123 fps= 25 q=28.0 time=00:02:30.05 bitrate=", 150.05},
		{"time=01:00:00.00", 3600},
		{"time=0:00:10.5 speed=1x", 10.5},
		{"time=00:00:00.00", 0},
		{"no time field here", 0},
		{"time=garbage", 0},
		{"time=00:02 partial", 0},
		{"", 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, parseElapsed(tt.chunk), 1e-9, "chunk %q", tt.chunk)
	}
}

func TestFraction(t *testing.T) {
	assert.InDelta(t, 0.5, fraction(150, 300), 1e-9)
	assert.Zero(t, fraction(150, 0))
	assert.Zero(t, fraction(150, -1))
	// not clamped, transient overshoot is allowed
	assert.InDelta(t, 1.5, fraction(450, 300), 1e-9)
}

func TestRepairEncoding(t *testing.T) {
	assert.Equal(t, "clean line", repairEncoding("clean line"))

	// lone Latin-1 byte, invalid as UTF-8
	garbled := "caf\xe9 time=00:00:01.00"
	repaired := repairEncoding(garbled)
	assert.Equal(t, "café time=00:00:01.00", repaired)
	assert.InDelta(t, 1.0, parseElapsed(repaired), 1e-9)
}

func TestScanStatusChunksOnSentinel(t *testing.T) {
	input := "ffmpeg version 6.1\nStream mapping:\nsize=     128kB time=00:00:05.00 bitrate= 209kbits/s\rsize=     256kB time=00:00:10.00 bitrate= 209kbits/s\r"

	scanner := bufio.NewScanner(strings.NewReader(input))
	scanner.Split(scanStatus)

	var chunks []string
	for scanner.Scan() {
		chunks = append(chunks, scanner.Text())
	}
	assert.NoError(t, scanner.Err())

	assert.Len(t, chunks, 3)
	assert.Contains(t, chunks[0], "Stream mapping")
	assert.Contains(t, chunks[1], "time=00:00:05.00")
	assert.Contains(t, chunks[2], "time=00:00:10.00")

	// chunking must not drop bytes from the captured diagnostics
	assert.Equal(t, input, strings.Join(chunks, ""))
}

func TestScanStatusNoSentinel(t *testing.T) {
	scanner := bufio.NewScanner(strings.NewReader("plain error output"))
	scanner.Split(scanStatus)

	var chunks []string
	for scanner.Scan() {
		chunks = append(chunks, scanner.Text())
	}
	assert.Equal(t, []string{"plain error output"}, chunks)
}
