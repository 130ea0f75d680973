// Package featureflags evaluates runtime feature switches from FEATURE_FLAGS.
package featureflags

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
)

// Known flags.
const (
	// VendorSignup gates self-service vendor registration.
	VendorSignup = "vendor_signup"
	// LegacyEdits gates the /api/edits alias routes.
	LegacyEdits = "legacy_edits"
)

// Defaults lists the value a known flag takes when FEATURE_FLAGS omits it.
var Defaults = map[string]string{
	VendorSignup: "on",
	LegacyEdits:  "on",
}

// Manager evaluates feature flags defined in a simple key=value list.
// Example: "vendor_signup=off,legacy_edits=25%"
type Manager struct {
	flags map[string]string
}

// NewManager parses raw on top of Defaults.
func NewManager(raw string) *Manager {
	out := make(map[string]string, len(Defaults))
	for k, v := range Defaults {
		out[k] = v
	}

	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			continue
		}
		key, value = normalize(key), normalize(value)
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}

	return &Manager{flags: out}
}

// Enabled reports whether name is on for accountID. Values are on/true/1,
// off/false/0 or N% for a deterministic per-account rollout. Unknown flags
// are off.
func (m *Manager) Enabled(name string, accountID uint) bool {
	if m == nil {
		return false
	}
	value, ok := m.flags[normalize(name)]
	if !ok {
		return false
	}

	switch value {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}

	pctRaw, isPct := strings.CutSuffix(value, "%")
	if !isPct {
		return false
	}
	pct, err := strconv.Atoi(pctRaw)
	switch {
	case err != nil || pct <= 0:
		return false
	case pct >= 100:
		return true
	case accountID == 0:
		return false
	}
	return rolloutBucket(name, accountID) < pct
}

// Raw returns a copy of configured flags.
func (m *Manager) Raw() map[string]string {
	out := make(map[string]string, len(m.flags))
	for k, v := range m.flags {
		out[k] = v
	}
	return out
}

// Snapshot returns evaluated flag status for one account.
func (m *Manager) Snapshot(accountID uint) map[string]bool {
	out := make(map[string]bool, len(m.flags))
	for name := range m.flags {
		out[name] = m.Enabled(name, accountID)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name string, accountID uint) int {
	h := fnv.New32a()
	_, _ = fmt.Fprintf(h, "%s:%d", normalize(name), accountID)
	return int(h.Sum32() % 100)
}
