// Package budget holds the precomputed nitrogen budget table and the lookups
// served by the budget chart and delta map endpoints.
package budget

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/nitromap/nitromap/internal/domain"
)

// ErrNotFound is returned when no budget entry exists for a key, or the entry
// has an empty input or output side.
var ErrNotFound = errors.New("budget entry not found")

// ErrMalformedKey is returned by ParseKey for keys that are not exactly three
// separator-delimited segments naming a known level.
var ErrMalformedKey = errors.New("malformed budget key")

// NationalName is the unit name used in keys at national level.
const NationalName = "ALL"

const keySeparator = "__"

// Key identifies a budget entry.
type Key struct {
	Level   domain.Level
	Name    string
	Landuse string
}

// NewKey returns the key for a lookup. National keys always use NationalName.
func NewKey(level domain.Level, name, landuse string) Key {
	if level.IsNational() {
		name = NationalName
	}
	return Key{Level: level, Name: name, Landuse: landuse}
}

// String returns the key in its source form, level__name__landuse.
func (k Key) String() string {
	return string(k.Level) + keySeparator + k.Name + keySeparator + k.Landuse
}

// ParseKey parses a source key of the form level__name__landuse.
func ParseKey(s string) (Key, error) {
	parts := strings.Split(s, keySeparator)
	if len(parts) != 3 {
		return Key{}, fmt.Errorf("%w: %q has %d segments", ErrMalformedKey, s, len(parts))
	}
	level, err := domain.ParseLevel(parts[0])
	if err != nil {
		return Key{}, fmt.Errorf("%w: %q: %w", ErrMalformedKey, s, err)
	}
	return Key{Level: level, Name: parts[1], Landuse: parts[2]}, nil
}

// Flow is the source payload of one nitrogen source or sink, usually
// {"average": n}. It is served as stored.
type Flow = json.RawMessage

// Entry is a precomputed budget for one unit and landuse class.
type Entry struct {
	Input  map[string]Flow `json:"input"`
	Output map[string]Flow `json:"output"`
	// DeltaN is nil when the source had no delta for the entry.
	DeltaN *float64 `json:"delta_n"`
}

// Flows is the payload returned for a budget lookup hit.
type Flows struct {
	Input  map[string]Flow `json:"input"`
	Output map[string]Flow `json:"output"`
}
