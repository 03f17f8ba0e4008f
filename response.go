package aione

import "sync/atomic"

// ErrNotConfiguredMessage is reported when a send is attempted without an API key.
const ErrNotConfiguredMessage = "API key is not configured"

const fallbackErrorMessage = "an error occurred while sending the message"

// ChatResponse is the outcome of a buffered send. The service never returns a transport
// error directly; failures are folded into IsError and ErrorMessage.
type ChatResponse struct {
	Content      string `json:"content,omitempty"`
	IsError      bool   `json:"isError"`
	ErrorMessage string `json:"errorMessage,omitempty"`

	// Cancelled is set when the send was superseded or cancelled. It is not an error.
	Cancelled bool `json:"cancelled,omitempty"`
}

// State is the dispatch state of a Service.
type State int32

const (
	StateIdle State = iota
	StateSending
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

type atomicState struct {
	v atomic.Int32
}

func (a *atomicState) Load() State   { return State(a.v.Load()) }
func (a *atomicState) Store(s State) { a.v.Store(int32(s)) }
