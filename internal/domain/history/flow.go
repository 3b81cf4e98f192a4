// internal/domain/history/flow.go
package history

import (
	"errors"
	"fmt"
)

// FlowLevel grades menstrual flow intensity on a daily log.
type FlowLevel string

const (
	FlowNone     FlowLevel = "none"
	FlowSpotting FlowLevel = "spotting"
	FlowLight    FlowLevel = "light"
	FlowMedium   FlowLevel = "medium"
	FlowHeavy    FlowLevel = "heavy"
)

// DefaultFlow is substituted for unknown flow values during bulk imports.
const DefaultFlow = FlowMedium

var ErrUnknownFlow = errors.New("unknown flow level")

// FlowLevels returns the accepted values in increasing intensity order.
func FlowLevels() []FlowLevel {
	return []FlowLevel{FlowNone, FlowSpotting, FlowLight, FlowMedium, FlowHeavy}
}

// Valid reports whether f is one of the accepted flow levels.
func (f FlowLevel) Valid() bool {
	switch f {
	case FlowNone, FlowSpotting, FlowLight, FlowMedium, FlowHeavy:
		return true
	}
	return false
}

// ParseFlow validates a raw flow string, defaulting empty to DefaultFlow.
// Callers that tolerate bad input (imports) should fall back to DefaultFlow
// instead of failing.
func ParseFlow(s string) (FlowLevel, error) {
	if s == "" {
		return DefaultFlow, nil
	}
	f := FlowLevel(s)
	if !f.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownFlow, s)
	}
	return f, nil
}
