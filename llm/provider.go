package llm

import "context"

// Provider is the interface every LLM backend must implement.
//
// A Provider makes exactly one outbound call per Complete invocation and
// never retries on its own; retry policy belongs to the caller. It must not
// retain or mutate the request's message slice.
type Provider interface {
	// Name returns the provider identifier (e.g. "anthropic", "openai").
	Name() string

	// Complete sends a blocking request and returns the full response.
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Closer is implemented by providers that hold resources.
type Closer interface {
	Close() error
}
