// Package plates resolves German license-plate district codes ("B", "HRO")
// to full place names. The cleaning pipeline injects a Resolver so the
// duplicate engine itself stays free of network and cache concerns.
package plates

import (
	"errors"
	"strings"
)

// ErrLookupUnavailable is returned when no mapping source can be reached.
var ErrLookupUnavailable = errors.New("license plate lookup unavailable")

// ErrUnknownCode is returned for values that are not a known plate code.
var ErrUnknownCode = errors.New("unknown license plate code")

// Resolver maps a plate code to a place name. Implementations must only
// match whole codes; "AM" inside "Frankfurt am Main" is not a code.
type Resolver interface {
	Resolve(code string) (string, error)
}

// MapResolver resolves from an in-memory mapping, e.g. a loaded cache file.
type MapResolver map[string]string

func (m MapResolver) Resolve(code string) (string, error) {
	if len(m) == 0 {
		return "", ErrLookupUnavailable
	}
	name, ok := m[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return "", ErrUnknownCode
	}
	return name, nil
}

// Unavailable is a Resolver that always fails, for running the pipeline
// offline without plate resolution.
type Unavailable struct{}

func (Unavailable) Resolve(string) (string, error) {
	return "", ErrLookupUnavailable
}
