package providers

import (
	"fmt"

	"github.com/renoquote/renoquote/internal/llm/configuration"
	llmerrors "github.com/renoquote/renoquote/internal/llm/errors"
	"github.com/renoquote/renoquote/internal/llm/transport"
)

// Supported provider identifiers.
const (
	ProviderGoogle = "google" // Google Gemini models
)

// NewRouter creates a router for the configured provider.
// Every Gemini model tier routes through the single Google adapter; the
// router keeps the transport layer open to additional vendors.
func NewRouter(cfg configuration.ProviderConfig) transport.Router {
	return &router{google: NewGoogleAdapter(cfg)}
}

type router struct {
	google *GoogleAdapter
}

// Pick selects the adapter for the given model identifier.
// Returns an error for empty model names.
func (r *router) Pick(model string) (transport.ProviderAdapter, error) {
	if model == "" {
		return nil, fmt.Errorf("%w: empty model name", llmerrors.ErrUnknownModel)
	}
	return r.google, nil
}
