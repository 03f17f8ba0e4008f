// Package compat implements transport.Transport for any provider exposing the OpenAI chat
// completions API over HTTP (Kimi, DeepSeek, local inference servers, proxies).
//
// Requests are POSTed to {baseURL}/chat/completions with a bearer token. Buffered replies
// are read from choices[0].message.content; streaming replies are decoded by pkg/sse.
package compat
