// Package featureflags evaluates rollout switches configured in FEATURE_FLAGS,
// for example "view_stream=on,analytics_beta=25%".
package featureflags

import (
	"hash/fnv"
	"strconv"
	"strings"
)

// ViewStream gates the live stale-view WebSocket.
const ViewStream = "view_stream"

// Set holds parsed flag values keyed by lower-cased name.
type Set struct {
	values map[string]string
}

// Parse reads a comma-separated name=value list. Malformed entries are skipped.
func Parse(raw string) *Set {
	values := make(map[string]string)
	for _, entry := range strings.Split(raw, ",") {
		name, value, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		name, value = normalize(name), normalize(value)
		if name == "" || value == "" {
			continue
		}
		values[name] = value
	}
	return &Set{values: values}
}

// Enabled reports whether name is on for userID. Values are on/off (or
// true/false, 1/0) or a percentage; percentages never include anonymous users.
func (s *Set) Enabled(name string, userID uint) bool {
	if s == nil {
		return false
	}
	value, ok := s.values[normalize(name)]
	if !ok {
		return false
	}

	switch value {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}

	pct, ok := percentage(value)
	switch {
	case !ok || pct <= 0:
		return false
	case pct >= 100:
		return true
	case userID == 0:
		return false
	}
	return bucket(name, userID) < pct
}

// Snapshot evaluates every configured flag for userID.
func (s *Set) Snapshot(userID uint) map[string]bool {
	out := make(map[string]bool, len(s.values))
	for name := range s.values {
		out[name] = s.Enabled(name, userID)
	}
	return out
}

func percentage(value string) (int, bool) {
	digits, ok := strings.CutSuffix(value, "%")
	if !ok {
		return 0, false
	}
	pct, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return pct, true
}

// bucket places a user deterministically in [0, 100) for a flag.
func bucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(normalize(name) + ":" + strconv.FormatUint(uint64(userID), 10)))
	return int(h.Sum32() % 100)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
