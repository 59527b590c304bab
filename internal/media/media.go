// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// StreamIO FFmpeg - FFmpeg 视频转码编排服务
//
// Package media probes files with ffprobe and exposes the stream and
// container attributes the transcoder derives its parameters from.

package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// Stream describes a single stream in the media container.
type Stream struct {
	Index              int      `json:"index"`
	CodecName          string   `json:"codec_name"`
	CodecType          string   `json:"codec_type"`
	Width              int      `json:"width"`
	Height             int      `json:"height"`
	DisplayAspectRatio string   `json:"display_aspect_ratio"`
	SampleRate         string   `json:"sample_rate"`
	Channels           int      `json:"channels"`
	ChannelLayout      string   `json:"channel_layout"`
	BitRate            string   `json:"bit_rate"`
	AvgFrameRate       string   `json:"avg_frame_rate"`
	Tags               Tags     `json:"tags"`
	SideData           []SideData `json:"side_data_list"`
}

// Tags are the per-stream metadata tags we care about.
type Tags struct {
	Rotate string `json:"rotate"`
}

// SideData carries packed per-stream side data, notably the display matrix rotation.
type SideData struct {
	Type     string  `json:"side_data_type"`
	Rotation float64 `json:"rotation"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
	FormatName string `json:"format_name"`
}

// Media is the probed view of one file. Unreadable or corrupt files yield a
// Media that reports Valid() == false instead of an error.
type Media struct {
	Path    string   `json:"path"`
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`

	valid bool
}

// Valid reports whether ffprobe could read the file and found at least one
// usable stream.
func (m *Media) Valid() bool {
	return m.valid
}

// Duration returns the container duration in seconds, or 0 when unavailable.
func (m *Media) Duration() float64 {
	return parseFloat(m.Format.Duration)
}

// Rotation returns the display rotation of the first video stream,
// normalized to 0, 90, 180 or 270.
func (m *Media) Rotation() int {
	v := m.videoStream()
	if v == nil {
		return 0
	}
	// 显示矩阵的角度为逆时针，校正角取相反数（与 tags.rotate 符号相反）
	for _, sd := range v.SideData {
		if sd.Rotation != 0 {
			return normalizeRotation(int(-sd.Rotation))
		}
	}
	if v.Tags.Rotate != "" {
		if r, err := strconv.Atoi(v.Tags.Rotate); err == nil {
			return normalizeRotation(r)
		}
	}
	return 0
}

// CalculatedAspectRatio derives the display aspect ratio, preferring the
// container's DAR tag over raw pixel dimensions. 0 when unknown.
func (m *Media) CalculatedAspectRatio() float64 {
	v := m.videoStream()
	if v == nil {
		return 0
	}
	if r := parseRatio(v.DisplayAspectRatio); r > 0 {
		return r
	}
	if v.Width > 0 && v.Height > 0 {
		return float64(v.Width) / float64(v.Height)
	}
	return 0
}

// Width of the first video stream
func (m *Media) Width() int {
	if v := m.videoStream(); v != nil {
		return v.Width
	}
	return 0
}

// Height of the first video stream
func (m *Media) Height() int {
	if v := m.videoStream(); v != nil {
		return v.Height
	}
	return 0
}

// VideoCodec returns the codec name of the first video stream
func (m *Media) VideoCodec() string {
	if v := m.videoStream(); v != nil {
		return v.CodecName
	}
	return ""
}

// AudioCodec returns the codec name of the first audio stream
func (m *Media) AudioCodec() string {
	for i := range m.Streams {
		if strings.EqualFold(m.Streams[i].CodecType, "audio") {
			return m.Streams[i].CodecName
		}
	}
	return ""
}

// FrameRate returns the average frame rate of the first video stream
func (m *Media) FrameRate() float64 {
	if v := m.videoStream(); v != nil {
		return parseRatio(v.AvgFrameRate)
	}
	return 0
}

func (m *Media) videoStream() *Stream {
	for i := range m.Streams {
		if strings.EqualFold(m.Streams[i].CodecType, "video") {
			return &m.Streams[i]
		}
	}
	return nil
}

// Prober runs ffprobe against media files.
type Prober struct {
	binary string
}

// NewProber resolves the ffprobe binary
func NewProber(binary string) (*Prober, error) {
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("invalid ffprobe binary: %w", err)
	}
	return &Prober{binary: path}, nil
}

// Probe inspects the file at path. Probe failures mark the media invalid
// rather than surfacing an error; only a cancelled context is fatal.
func (p *Prober) Probe(ctx context.Context, path string) (*Media, error) {
	media := &Media{Path: path}
	if strings.TrimSpace(path) == "" {
		return media, nil
	}

	cmd := exec.CommandContext(ctx, p.binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", path)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return media, nil
	}

	var payload struct {
		Streams []Stream `json:"streams"`
		Format  Format   `json:"format"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &payload); err != nil {
		return media, nil
	}

	media.Streams = payload.Streams
	media.Format = payload.Format

	// ffprobe 可读但部分流的解码器缺失时，stderr 会包含 Unsupported codec。
	// 沿用该启发式：出现即视为无效文件。
	media.valid = len(media.Streams) > 0 && !strings.Contains(stderr.String(), "Unsupported codec")
	return media, nil
}

func normalizeRotation(r int) int {
	r = ((r % 360) + 360) % 360
	switch r {
	case 90, 180, 270:
		return r
	}
	return 0
}

func parseRatio(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	var sep string
	switch {
	case strings.Contains(value, ":"):
		sep = ":"
	case strings.Contains(value, "/"):
		sep = "/"
	default:
		return parseFloat(value)
	}
	parts := strings.SplitN(value, sep, 2)
	num := parseFloat(parts[0])
	den := parseFloat(parts[1])
	if num <= 0 || den <= 0 {
		return 0
	}
	return num / den
}

func parseFloat(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(parsed) || parsed < 0 {
		return 0
	}
	return parsed
}
