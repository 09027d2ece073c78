// Package llm provides an OpenAI-compatible HTTP client for narration script
// generation and speech synthesis.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.Complete: send system/user prompts, receive the assistant text.
// Client.Speech: synthesize text through the audio/speech endpoint.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors, empty completions, and
// network timeouts with exponential backoff (base 1s, max 10s, up to 5
// attempts by default). A 429 whose body reports insufficient_quota is not
// retried; IsQuotaExceeded lets callers switch providers instead. Context
// cancellation aborts retries immediately.
package llm
