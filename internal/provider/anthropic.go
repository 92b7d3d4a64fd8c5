package provider

import (
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// NewAnthropicClient returns a client for apiKey. Retries are disabled: a
// failed provider call aborts the session instead of being replayed.
// Extra options (HTTP client, base URL) are applied last.
func NewAnthropicClient(apiKey string, opts ...option.RequestOption) *anthropic.Client {
	base := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	c := anthropic.NewClient(append(base, opts...)...)
	return &c
}

const DefaultModel = anthropic.ModelClaude3_7SonnetLatest
