/*
Package openai implements transport.Transport on top of the official openai-go SDK.

It is the preferred transport for the openai provider. The SDK client is created once;
the API key and base URL are applied per request from the active configuration, so a
configuration change takes effect on the next send without rebuilding the client.

	t := openai.New(desc)
	content, err := t.SendBuffered(ctx, history, cfg)

Streaming requests deliver each non-empty content delta to the callback in arrival order.
Cancelling the context, calling Cancel, or starting another request on the same instance
stops the stream without an error.

SDK errors are mapped onto the transport error kinds: 401 and 403 become
*transport.AuthError, other statuses become *transport.APIError, and connection failures
become *transport.NetworkError.
*/
package openai
