// Package transport defines how a conversation reaches a chat-completion provider.
//
// Two kinds of implementation exist: transport/openai drives the official SDK for
// providers with first-class support, and transport/compat speaks the OpenAI chat
// completions wire format over plain HTTP for everyone else. A Selector maps provider ids
// to factories, falling back to the compatible implementation.
//
// Error taxonomy:
//   - AuthError: credentials rejected (401/403)
//   - NetworkError: connection or read failure
//   - MalformedResponseError: 2xx without the expected content
//   - UnsupportedProviderError: no transport for the provider id
//   - CancelledError: aborted by a newer send or an explicit cancel
//   - APIError: any other non-2xx status
package transport
