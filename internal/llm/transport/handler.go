package transport

import (
	"context"
	"fmt"
	"net/http"
	"time"

	llmerrors "github.com/renoquote/renoquote/internal/llm/errors"
)

// Router selects the provider adapter for a given model identifier.
type Router interface {
	Pick(model string) (ProviderAdapter, error)
}

// ProviderAdapter abstracts provider-specific HTTP communication patterns.
type ProviderAdapter interface {
	// Build constructs the provider HTTP request from a normalized request.
	Build(ctx context.Context, req *Request) (*http.Request, error)

	// Parse extracts a normalized Response from the provider's HTTP
	// response, or a classified *TransportError on failure.
	Parse(httpResp *http.Response) (*Response, error)

	// Name returns the canonical provider identifier.
	Name() string
}

// Handler processes model requests through a composable middleware pipeline.
// Core abstraction enabling request preprocessing, response postprocessing,
// and cross-cutting concerns like caching and retries.
type Handler interface {
	Handle(ctx context.Context, req *Request) (*Response, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(context.Context, *Request) (*Response, error)

// Handle implements the Handler interface.
func (f HandlerFunc) Handle(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Middleware transforms a Handler into an enhanced Handler.
// Applied in reverse order with the last middleware closest to the core
// handler, enabling layered request processing.
type Middleware func(Handler) Handler

// Chain builds a middleware pipeline around a core handler.
// Middleware executes in the order provided with the first middleware
// outermost.
func Chain(h Handler, middlewares ...Middleware) Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// NewHTTPHandler creates the core handler that performs actual HTTP calls
// through the routed provider adapter.
func NewHTTPHandler(client *http.Client, router Router) Handler {
	return &httpHandler{client: client, router: router}
}

type httpHandler struct {
	client *http.Client
	router Router
}

// Handle implements Handler by making HTTP requests to the routed provider.
func (h *httpHandler) Handle(ctx context.Context, req *Request) (*Response, error) {
	adapter, err := h.router.Pick(req.Model)
	if err != nil {
		return nil, &llmerrors.TransportError{
			Type:    llmerrors.ErrorTypeInvalidTarget,
			Message: err.Error(),
		}
	}

	// Per-request timeout layered under the caller's overall deadline.
	reqCtx := ctx
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	httpReq, err := adapter.Build(reqCtx, req)
	if err != nil {
		return nil, &llmerrors.TransportError{
			Type:    llmerrors.ErrorTypeEncode,
			Message: fmt.Sprintf("failed to build request: %v", err),
		}
	}

	start := time.Now()
	httpResp, err := h.client.Do(httpReq)
	latency := time.Since(start)

	if err != nil {
		return nil, llmerrors.ClassifyTransport(err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	resp, err := adapter.Parse(httpResp)
	if err != nil {
		return nil, err
	}

	if resp.Content == "" {
		return nil, &llmerrors.TransportError{
			Type:       llmerrors.ErrorTypeNoData,
			StatusCode: httpResp.StatusCode,
			Message:    llmerrors.ErrNoData.Error(),
		}
	}

	resp.Usage.LatencyMs = latency.Milliseconds()
	resp.Model = req.Model
	resp.UsedVision = len(req.Attachments) > 0

	return resp, nil
}
