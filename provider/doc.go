// Package provider holds the table of chat-completion providers known to the client.
//
// A provider is a named backend exposing an OpenAI-compatible chat completion API. The
// registry is pure data: it performs no I/O and the only failure it reports is ErrNotFound
// for ids it does not know. Transport selection lives in the transport package; this
// package only answers "where is it and which models does it serve".
//
// Example usage:
//
//	desc, err := provider.Builtin().Lookup(provider.DeepSeek)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(desc.BaseURL, desc.DefaultModel)
package provider
