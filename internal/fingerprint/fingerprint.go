// Package fingerprint derives a stable anonymous device identity from
// browser and hardware signals, and persists it through a pluggable storage.
//
// The identity is a non-cryptographic hash: two devices with identical
// signals collide. That is a known limitation, not a correctness guarantee.
package fingerprint

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Prefix marks device identities so they are distinguishable from auth UUIDs.
const Prefix = "dev_"

// Sentinel replaces any signal the browser could not provide.
const Sentinel = "unavailable"

// Signals are the ambient properties a browser exposes. Empty strings and nil
// pointers mean the signal was unavailable.
type Signals struct {
	ScreenWidth    *int     `json:"screenWidth,omitempty"`
	ScreenHeight   *int     `json:"screenHeight,omitempty"`
	ColorDepth     *int     `json:"colorDepth,omitempty"`
	PixelRatio     *float64 `json:"pixelRatio,omitempty"`
	TimezoneOffset *int     `json:"timezoneOffset,omitempty"` // minutes, as Date.getTimezoneOffset
	Timezone       string   `json:"timezone,omitempty"`
	Platform       string   `json:"platform,omitempty"`
	UserAgent      string   `json:"userAgent,omitempty"`
	Language       string   `json:"language,omitempty"`
	CPUCores       *int     `json:"cpuCores,omitempty"`
	DeviceMemory   *float64 `json:"deviceMemory,omitempty"` // GB
	TouchPoints    *int     `json:"touchPoints,omitempty"`
	Canvas         string   `json:"canvas,omitempty"` // rendered-canvas signature
	WebGLRenderer  string   `json:"webglRenderer,omitempty"`
	Fonts          string   `json:"fonts,omitempty"` // installed-font signature
}

// canonical serializes the signals in a fixed order so the hash only depends
// on their values.
func (s Signals) canonical() string {
	parts := []string{
		"sw=" + intOr(s.ScreenWidth),
		"sh=" + intOr(s.ScreenHeight),
		"cd=" + intOr(s.ColorDepth),
		"pr=" + floatOr(s.PixelRatio),
		"tzo=" + intOr(s.TimezoneOffset),
		"tz=" + strOr(s.Timezone),
		"pf=" + strOr(s.Platform),
		"ua=" + strOr(s.UserAgent),
		"lang=" + strOr(s.Language),
		"cpu=" + intOr(s.CPUCores),
		"mem=" + floatOr(s.DeviceMemory),
		"tp=" + intOr(s.TouchPoints),
		"cv=" + strOr(s.Canvas),
		"gl=" + strOr(s.WebGLRenderer),
		"ft=" + strOr(s.Fonts),
	}
	return strings.Join(parts, "|")
}

// Generate returns the device identity for a set of signals. It is a pure
// function and always produces a value of the same length.
func Generate(s Signals) string {
	return fmt.Sprintf("%s%016x", Prefix, xxhash.Sum64String(s.canonical()))
}

// IsDeviceID reports whether id looks like a generated device identity.
func IsDeviceID(id string) bool {
	if len(id) != len(Prefix)+16 || !strings.HasPrefix(id, Prefix) {
		return false
	}
	_, err := strconv.ParseUint(id[len(Prefix):], 16, 64)
	return err == nil
}

func strOr(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return Sentinel
	}
	return v
}

func intOr(v *int) string {
	if v == nil {
		return Sentinel
	}
	return strconv.Itoa(*v)
}

func floatOr(v *float64) string {
	if v == nil {
		return Sentinel
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
