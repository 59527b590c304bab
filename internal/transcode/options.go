// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// StreamIO FFmpeg - FFmpeg 视频转码编排服务

package transcode

import (
	"fmt"
	"sort"
	"strings"
)

// Options is the normalized output option set for one invocation, built
// either from a raw command line fragment or from a structured key/value
// map. The zero value is an empty structured set.
type Options struct {
	raw    []string
	keys   []string
	values map[string]string
}

// RawOptions tokenizes a pre-built option string on whitespace. Raw options
// are passed through opaquely; no dimensions can be read back from them.
func RawOptions(raw string) Options {
	return Options{raw: strings.Fields(raw)}
}

// StructuredOptions normalizes a key/value map into "-key value" argument
// pairs with a stable key order. Keys are ffmpeg flag names without the
// leading dash; an empty value emits the flag alone. The "s" key carries the
// output resolution as WxH.
func StructuredOptions(kv map[string]string) (Options, error) {
	values := make(map[string]string, len(kv))
	for k, v := range kv {
		key := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(k), "-"))
		if key == "" {
			return Options{}, fmt.Errorf("%w: empty option key", ErrInvalidRequest)
		}
		if strings.ContainsAny(key, " \t") {
			return Options{}, fmt.Errorf("%w: malformed option key %q", ErrInvalidRequest, k)
		}
		if _, dup := values[key]; dup {
			return Options{}, fmt.Errorf("%w: duplicate option key %q", ErrInvalidRequest, key)
		}
		values[key] = strings.TrimSpace(v)
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return Options{keys: keys, values: values}, nil
}

// Structured reports whether the option set carries readable key/values.
func (o Options) Structured() bool {
	return o.raw == nil
}

// Args serializes the option set into argv tokens.
func (o Options) Args() []string {
	if o.raw != nil {
		out := make([]string, len(o.raw))
		copy(out, o.raw)
		return out
	}
	var out []string
	for _, k := range o.keys {
		out = append(out, "-"+k)
		if v := o.values[k]; v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Resolution parses the requested output dimensions from the "s" option.
func (o Options) Resolution() (width, height int, ok bool) {
	if o.values == nil {
		return 0, 0, false
	}
	res, present := o.values["s"]
	if !present {
		return 0, 0, false
	}
	if n, err := fmt.Sscanf(res, "%dx%d", &width, &height); err != nil || n != 2 || width <= 0 || height <= 0 {
		return 0, 0, false
	}
	return width, height, true
}

// withResolution returns a copy with the "s" option replaced.
func (o Options) withResolution(width, height int) Options {
	values := make(map[string]string, len(o.values)+1)
	for k, v := range o.values {
		values[k] = v
	}
	_, had := values["s"]
	values["s"] = fmt.Sprintf("%dx%d", width, height)

	keys := make([]string, len(o.keys))
	copy(keys, o.keys)
	if !had {
		keys = append(keys, "s")
		sort.Strings(keys)
	}
	return Options{keys: keys, values: values}
}
