package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ledgermesh/qbsync/pkg/errors"
)

// DefaultTimeout bounds each request/response exchange with the bridge.
var DefaultTimeout = 30 * time.Second

// Transport is the opaque request/response channel to QuickBooks.
// Every successful Open must be matched by exactly one Close on the
// returned session; the Gateway enforces this pairing.
type Transport interface {
	Open(ctx context.Context) (Session, error)
}

// Session is one acquired connection to the QuickBooks request processor.
type Session interface {
	// Process sends one QBXML request and returns the raw response.
	Process(ctx context.Context, request []byte) ([]byte, error)

	Close() error
}

// HTTPTransport exchanges QBXML documents with a bridge service that
// fronts the QuickBooks Desktop request processor, one POST per request.
type HTTPTransport struct {
	url  string
	http *http.Client
}

// NewHTTPTransport creates a transport for the bridge at url.
func NewHTTPTransport(url string) *HTTPTransport {
	return &HTTPTransport{
		url:  url,
		http: &http.Client{Timeout: DefaultTimeout},
	}
}

// Open validates the configuration and hands out a session. The bridge
// itself is stateless, so acquisition is cheap; the session abstraction
// exists so callers pair every use with a release.
func (t *HTTPTransport) Open(_ context.Context) (Session, error) {
	if t.url == "" {
		return nil, &errors.ConfigError{Component: "gateway", Message: "QuickBooks bridge URL not configured"}
	}
	return &httpSession{transport: t}, nil
}

type httpSession struct {
	transport *HTTPTransport
}

func (s *httpSession) Process(ctx context.Context, request []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.transport.url, bytes.NewReader(request))
	if err != nil {
		return nil, &errors.TransportError{Stage: "process", Err: err}
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")

	resp, err := s.transport.http.Do(req)
	if err != nil {
		return nil, &errors.TransportError{Stage: "process", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &errors.TransportError{Stage: "process", Err: fmt.Errorf("bridge returned HTTP %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errors.TransportError{Stage: "process", Err: err}
	}
	return body, nil
}

func (s *httpSession) Close() error { return nil }
