package model

import (
	"strings"

	"github.com/m-mizutani/deploynotify/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// ValidationMode selects which precondition admits an event
type ValidationMode string

const (
	// ValidationModeEventType requires the event tag to be deployment_status
	ValidationModeEventType ValidationMode = "event-type"
	// ValidationModePayload requires the deployment and deployment status to be present
	ValidationModePayload ValidationMode = "payload"
)

// ParseValidationMode converts a configuration string into a ValidationMode.
// Empty input selects ValidationModeEventType.
func ParseValidationMode(s string) (ValidationMode, error) {
	switch ValidationMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ValidationModeEventType:
		return ValidationModeEventType, nil
	case ValidationModePayload:
		return ValidationModePayload, nil
	default:
		return "", goerr.Wrap(types.ErrInvalidConfig, "unknown validation mode", goerr.V("mode", s))
	}
}

// NotifyConfig is the immutable configuration of the notification builder
type NotifyConfig struct {
	WebhookURL     string `masq:"secret"`
	AllowedStates  StateSet
	ValidationMode ValidationMode
}

// StateSet is an allow-list of deployment states. Keys are lower-cased.
type StateSet map[string]struct{}

// ParseStates parses a comma-separated list of states. Blank items are ignored
// and an empty list yields an empty set, which means no filtering.
func ParseStates(s string) StateSet {
	set := StateSet{}
	for _, item := range strings.Split(s, ",") {
		item = strings.ToLower(strings.TrimSpace(item))
		if item == "" {
			continue
		}
		set[item] = struct{}{}
	}
	return set
}

// Allows reports whether state passes the filter. An empty set allows everything.
func (s StateSet) Allows(state string) bool {
	if len(s) == 0 {
		return true
	}
	_, ok := s[strings.ToLower(state)]
	return ok
}
