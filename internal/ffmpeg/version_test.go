// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// StreamIO FFmpeg - FFmpeg 视频转码编排服务

package ffmpeg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const versionOutput = `ffmpeg version 6.1.1 Copyright (c) 2000-2023 the FFmpeg developers
built with gcc 13 (GCC)
configuration: --prefix=/usr --enable-gpl --enable-libx264
libavutil      58. 29.100 / 58. 29.100
libavcodec     60. 31.102 / 60. 31.102
libavformat    60. 16.100 / 60. 16.100
`

func TestParseVersion(t *testing.T) {
	info := parseVersion([]byte(versionOutput))

	assert.Equal(t, "6.1.1", info.Version)
	assert.Equal(t, "gcc 13 (GCC)", info.Compiler)
	assert.Equal(t, "--prefix=/usr --enable-gpl --enable-libx264", info.Configuration)
	assert.Len(t, info.Libraries, 3)
	assert.Equal(t, "libavutil", info.Libraries[0].Name)
	assert.Equal(t, "58. 29.100", info.Libraries[0].Linked)
}

func TestParseVersionTwoDigit(t *testing.T) {
	info := parseVersion([]byte("ffmpeg version 7.0 Copyright\n"))
	assert.Equal(t, "7.0.0", info.Version)
}

func TestParseVersionUnknown(t *testing.T) {
	info := parseVersion([]byte("not ffmpeg at all\n"))
	assert.Empty(t, info.Version)
}

func TestValidator(t *testing.T) {
	v, err := NewValidator([]string{`^/media/`}, []string{`\.\.`})
	assert.NoError(t, err)

	assert.True(t, v.IsValid("/media/in.mov"))
	assert.False(t, v.IsValid("/tmp/in.mov"))
	assert.False(t, v.IsValid("/media/../etc/passwd"))

	open, err := NewValidator(nil, nil)
	assert.NoError(t, err)
	assert.True(t, open.IsValid("anything"))

	_, err = NewValidator([]string{"("}, nil)
	assert.Error(t, err)
}
