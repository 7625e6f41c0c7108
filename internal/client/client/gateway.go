package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/betclient/internal/logging"
	"github.com/dmitrijs2005/betclient/internal/netx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/dmitrijs2005/betclient/internal/client/client"

// Session is what the Gateway needs from the session coordinator.
type Session interface {
	// EnsureValidToken reports whether a usable token is held, refreshing it
	// first if it is stale.
	EnsureValidToken(ctx context.Context) bool
	// HandleExpiredToken is called after staleToken was rejected upstream.
	HandleExpiredToken(ctx context.Context, staleToken string) bool
	// Token returns the current bearer token.
	Token() string
}

// Gateway issues authenticated calls against the backend.
type Gateway struct {
	baseURL string
	http    *http.Client
	session Session
	log     logging.Logger
	tracer  trace.Tracer
}

type GatewayOption func(*Gateway)

func WithHTTPClient(c *http.Client) GatewayOption {
	return func(g *Gateway) { g.http = c }
}

func WithLogger(l logging.Logger) GatewayOption {
	return func(g *Gateway) { g.log = l }
}

func WithTracerProvider(tp trace.TracerProvider) GatewayOption {
	return func(g *Gateway) { g.tracer = tp.Tracer(tracerName) }
}

func NewGateway(baseURL string, session Session, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		baseURL: baseURL,
		http:    http.DefaultClient,
		session: session,
		log:     logging.Nop(),
		tracer:  otel.GetTracerProvider().Tracer(tracerName),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Do sends body (JSON encoded, may be nil) to path and decodes a 2xx answer
// into out (may be nil).
//
// A 401/403 answer triggers exactly one session refresh and one retry. If the
// session cannot be made valid, Do returns ErrSessionExpired without calling
// the network again.
func (g *Gateway) Do(ctx context.Context, method, path string, body, out any) error {
	payload, err := encodeBody(body)
	if err != nil {
		return err
	}

	if !g.session.EnsureValidToken(ctx) {
		return ErrSessionExpired
	}

	token := g.session.Token()
	err = g.send(ctx, method, path, token, payload, out, 1)

	if !errors.Is(err, ErrUnauthorized) {
		return err
	}

	g.log.Info(ctx, "request rejected, refreshing session",
		"method", method, "path", path, "error", err)

	if !g.session.HandleExpiredToken(ctx, token) {
		return ErrSessionExpired
	}

	err = g.send(ctx, method, path, g.session.Token(), payload, out, 2)
	if errors.Is(err, ErrUnauthorized) {
		g.log.Warn(ctx, "request rejected after refresh",
			"method", method, "path", path, "error", err)
		return ErrSessionExpired
	}
	return err
}

func (g *Gateway) send(ctx context.Context, method, path, token string, payload []byte, out any, attempt int) (err error) {
	ctx, span := g.tracer.Start(ctx, "HTTP "+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
			attribute.Int("betclient.attempt", attempt),
		))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	req, err := newRequest(ctx, g.baseURL, method, path, token, payload)
	if err != nil {
		return err
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return transportError(method+" "+path, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		drain(resp.Body)
		return &AuthenticationError{StatusCode: resp.StatusCode}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &RequestError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       netx.BodySnippet(resp.Body, netx.DefaultSnippetLimit),
		}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		drain(resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}
