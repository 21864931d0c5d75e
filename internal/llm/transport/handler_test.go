package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	llmerrors "github.com/renoquote/renoquote/internal/llm/errors"
)

type fakeAdapter struct {
	endpoint string
	buildErr error
	parse    func(*http.Response) (*Response, error)
}

func (a *fakeAdapter) Build(ctx context.Context, _ *Request) (*http.Request, error) {
	if a.buildErr != nil {
		return nil, a.buildErr
	}
	return http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, strings.NewReader("{}"))
}

func (a *fakeAdapter) Parse(httpResp *http.Response) (*Response, error) {
	return a.parse(httpResp)
}

func (a *fakeAdapter) Name() string { return "fake" }

type fakeRouter struct {
	adapter ProviderAdapter
	err     error
}

func (r *fakeRouter) Pick(string) (ProviderAdapter, error) {
	return r.adapter, r.err
}

func TestHTTPHandler_RouterErrorIsInvalidTarget(t *testing.T) {
	h := NewHTTPHandler(http.DefaultClient, &fakeRouter{err: errors.New("no adapter for model")})

	_, err := h.Handle(context.Background(), &Request{Model: "made-up-model"})
	require.Error(t, err)

	var terr *llmerrors.TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, llmerrors.ErrorTypeInvalidTarget, terr.Type)
	assert.Contains(t, terr.Message, "no adapter")
}

func TestHTTPHandler_BuildErrorIsEncode(t *testing.T) {
	router := &fakeRouter{adapter: &fakeAdapter{buildErr: errors.New("bad payload")}}
	h := NewHTTPHandler(http.DefaultClient, router)

	_, err := h.Handle(context.Background(), &Request{Model: "m"})
	require.Error(t, err)

	var terr *llmerrors.TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, llmerrors.ErrorTypeEncode, terr.Type)
}

func TestHTTPHandler_SuccessPopulatesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "body")
	}))
	defer server.Close()

	adapter := &fakeAdapter{endpoint: server.URL, parse: func(resp *http.Response) (*Response, error) {
		return &Response{Content: "estimate text", StatusCode: resp.StatusCode}, nil
	}}
	h := NewHTTPHandler(server.Client(), &fakeRouter{adapter: adapter})

	resp, err := h.Handle(context.Background(), &Request{
		Model:       "gemini-1.5-pro",
		Attachments: []Attachment{{MimeType: "image/jpeg", Data: []byte{0xff}}},
	})
	require.NoError(t, err)

	assert.Equal(t, "estimate text", resp.Content)
	assert.Equal(t, "gemini-1.5-pro", resp.Model)
	assert.True(t, resp.UsedVision)
	assert.GreaterOrEqual(t, resp.Usage.LatencyMs, int64(0))
}

func TestHTTPHandler_EmptyContentIsNoData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	adapter := &fakeAdapter{endpoint: server.URL, parse: func(resp *http.Response) (*Response, error) {
		return &Response{StatusCode: resp.StatusCode}, nil
	}}
	h := NewHTTPHandler(server.Client(), &fakeRouter{adapter: adapter})

	_, err := h.Handle(context.Background(), &Request{Model: "m"})
	require.Error(t, err)

	var terr *llmerrors.TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, llmerrors.ErrorTypeNoData, terr.Type)
	assert.Equal(t, http.StatusOK, terr.StatusCode)
}

func TestHTTPHandler_TransportFailureIsClassified(t *testing.T) {
	adapter := &fakeAdapter{endpoint: "http://127.0.0.1:1", parse: func(*http.Response) (*Response, error) {
		t.Fatal("parse should not be reached")
		return nil, nil
	}}
	h := NewHTTPHandler(http.DefaultClient, &fakeRouter{adapter: adapter})

	// Port 1 refuses connections.
	_, err := h.Handle(context.Background(), &Request{Model: "m"})
	require.Error(t, err)

	var terr *llmerrors.TransportError
	require.ErrorAs(t, err, &terr)
	assert.True(t, terr.IsRetryable())
}

func TestChain_OrdersMiddlewareFirstOutermost(t *testing.T) {
	var trace []string
	mark := func(name string) Middleware {
		return func(next Handler) Handler {
			return HandlerFunc(func(ctx context.Context, req *Request) (*Response, error) {
				trace = append(trace, name)
				return next.Handle(ctx, req)
			})
		}
	}
	core := HandlerFunc(func(context.Context, *Request) (*Response, error) {
		trace = append(trace, "core")
		return &Response{Content: "ok"}, nil
	})

	_, err := Chain(core, mark("outer"), mark("inner")).Handle(context.Background(), &Request{})
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner", "core"}, trace)
}
