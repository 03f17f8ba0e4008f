// Package messages defines the conversation entries exchanged with chat providers.
//
// A conversation is an ordered slice of ChatMessage values owned by the caller. The
// dispatch layer treats it as immutable input: it is read, converted to the wire format of
// the selected transport and never modified.
//
// Example usage:
//
//	history := []messages.ChatMessage{
//	    messages.System("You are a helpful assistant"),
//	    messages.User("What is the capital of France?"),
//	}
package messages
