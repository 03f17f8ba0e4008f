/*
Package aione is the chat dispatch core of the aione client: it sends a conversation to
whichever OpenAI-compatible provider is selected in the configuration and hands back the
reply, either complete or as a stream of text increments.

# Components

  - provider: the table of known providers, their endpoints and model catalogues
  - config: the active configuration, persisted through a pluggable key-value store
  - kvstore: memory, JSON file, SQLite and NATS key-value backends
  - transport: the transport contract, its error kinds and per-provider selection
  - transport/openai: the transport built on the openai-go SDK
  - transport/compat: the transport speaking the chat-completions wire format over HTTP
  - pkg/sse: the incremental decoder for "data:" framed streams
  - events: request lifecycle events and the Hook that observes them

# Basic Usage

	store, err := config.NewStore(kvstore.NewMemory())
	if err != nil {
		return err
	}
	_ = store.SetAPIKey(os.Getenv("AIONE_API_KEY"))

	svc, err := aione.New(store)
	if err != nil {
		return err
	}

	resp := svc.SendMessage(ctx, []messages.ChatMessage{
		messages.System("You are a helpful assistant"),
		messages.User("Hello"),
	})
	if resp.IsError {
		fmt.Println("error:", resp.ErrorMessage)
	}

Streaming delivers every increment to a callback and reports failures through a second
one:

	svc.SendMessageStream(ctx, history,
		func(delta string) { fmt.Print(delta) },
		func(msg string) { fmt.Println("error:", msg) },
	)

# Cancellation

A Service keeps at most one request outstanding. Starting a new send cancels the previous
one, and CancelRequest aborts it explicitly. A cancelled buffered send returns a
ChatResponse with Cancelled set; a cancelled stream simply stops without calling onError.

# Configuration Changes

Transports are created lazily per provider and cached. Call UpdateConfig after changing
the configuration so the next send builds fresh ones.
*/
package aione
