// Package events describes the lifecycle of a chat request as a small set of events and
// the Hook that observes them.
//
// A send produces one Request event, then either a sequence of Chunk events followed by a
// Response (streaming), a single Response (buffered), an Error, or a cancel Delim when a
// newer send or an explicit cancel supersedes it.
//
// Every event carries the RequestID of the send it belongs to and serializes to a JSON
// object with a "type" discriminator, so it can travel over a broker:
//
//	data, err := events.ToJSON(events.Chunk{RequestID: id, Delta: "Hel"})
//	evt, err := events.FromJSON(data)
//
// Dispatch routes a decoded event to the matching Hook method.
package events
