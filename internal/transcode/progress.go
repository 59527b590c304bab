// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// StreamIO FFmpeg - FFmpeg 视频转码编排服务

package transcode

import (
	"bytes"
	"regexp"
	"strconv"
	"unicode/utf8"
)

// sentinel precedes every ffmpeg status update on stderr; the stream is
// chunked on it so each chunk carries at most one time= field.
const sentinel = "size="

var timeRE = regexp.MustCompile(`time=(\d+):(\d+):(\d+(?:\.\d+)?)`)

// parseElapsed extracts the elapsed encoding time in seconds from one
// stderr chunk. Absent or malformed fields yield 0 — progress reporting is
// best effort and never fails.
func parseElapsed(chunk string) float64 {
	m := timeRE.FindStringSubmatch(chunk)
	if m == nil {
		return 0
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	sec, _ := strconv.ParseFloat(m[3], 64)
	return float64(h*3600+min*60) + sec
}

// fraction converts elapsed seconds into fractional completion. No
// clamping; values above 1.0 can occur transiently.
func fraction(elapsed, duration float64) float64 {
	if duration <= 0 {
		return 0
	}
	return elapsed / duration
}

// repairEncoding reinterprets chunks that are not valid UTF-8 as Latin-1 so
// the later scans never trip over garbled bytes.
func repairEncoding(chunk string) string {
	if utf8.ValidString(chunk) {
		return chunk
	}
	runes := make([]rune, 0, len(chunk))
	for _, b := range []byte(chunk) {
		runes = append(runes, rune(b))
	}
	return string(runes)
}

// scanStatus is a bufio.SplitFunc chunking ffmpeg stderr on the status
// sentinel instead of line endings; progress updates are terminated by \r
// and would otherwise coalesce. The sentinel stays in the emitted token so
// the concatenated chunks reproduce the stderr verbatim.
func scanStatus(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if i := bytes.Index(data, []byte(sentinel)); i >= 0 {
		n := i + len(sentinel)
		return n, data[:n], nil
	}
	if atEOF {
		if len(data) > 0 {
			return len(data), data, nil
		}
		return 0, nil, nil
	}
	return 0, nil, nil
}
