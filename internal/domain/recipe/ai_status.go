package recipe

import (
	"fmt"
	"time"
)

// AIStatus is the lifecycle state of a recipe's generated instructions
type AIStatus string

const (
	AIStatusIdle    AIStatus = "idle"
	AIStatusPending AIStatus = "pending"
	AIStatusReady   AIStatus = "ready"
	AIStatusFailed  AIStatus = "failed"
)

// AIEvent drives AIStatus transitions
type AIEvent int

const (
	// AIEventRequest is a user asking for instructions
	AIEventRequest AIEvent = iota
	// AIEventSucceed is the background task storing generated text
	AIEventSucceed
	// AIEventFail is the background task recording a generation error
	AIEventFail
)

func (e AIEvent) String() string {
	switch e {
	case AIEventRequest:
		return "request"
	case AIEventSucceed:
		return "succeed"
	case AIEventFail:
		return "fail"
	default:
		return "unknown"
	}
}

// RequestableStatuses are the states from which a new request starts generation
var RequestableStatuses = []AIStatus{AIStatusIdle, AIStatusFailed}

// ParseAIStatus reads a stored status. Rows written before the column existed
// carry an empty value and are treated as idle.
func ParseAIStatus(s string) (AIStatus, error) {
	switch AIStatus(s) {
	case "", AIStatusIdle:
		return AIStatusIdle, nil
	case AIStatusPending, AIStatusReady, AIStatusFailed:
		return AIStatus(s), nil
	default:
		return "", fmt.Errorf("unknown ai instructions status %q", s)
	}
}

// CanRequest reports whether a request would start a new generation
func (s AIStatus) CanRequest() bool {
	for _, r := range RequestableStatuses {
		if s == r {
			return true
		}
	}
	return false
}

func (s AIStatus) String() string {
	return string(s)
}

// Transition returns the state reached by applying event to from
func Transition(from AIStatus, event AIEvent) (AIStatus, error) {
	switch {
	case event == AIEventRequest && from.CanRequest():
		return AIStatusPending, nil
	case event == AIEventSucceed && from == AIStatusPending:
		return AIStatusReady, nil
	case event == AIEventFail && from == AIStatusPending:
		return AIStatusFailed, nil
	}
	return from, fmt.Errorf("%w: %s on %s", ErrInvalidStatusTransition, event, from)
}

// AIInstructions is the read-only view of the generated instructions state
type AIInstructions struct {
	Status      AIStatus
	Text        *string
	GeneratedAt *time.Time
	Error       *string
}
