package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/betclient/internal/common"
	"github.com/dmitrijs2005/betclient/internal/netx"
	"github.com/google/uuid"
)

// newRequest builds an outbound JSON request. An empty token sends no
// Authorization header.
func newRequest(ctx context.Context, baseURL, method, path, token string, body []byte) (*http.Request, error) {
	u, err := netx.JoinURL(baseURL, path)
	if err != nil {
		return nil, fmt.Errorf("build url: %w", err)
	}

	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", common.UserAgent)
	req.Header.Set(common.RequestIDHeaderName, uuid.NewString())
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerValue(token))
	}
	return req, nil
}

func encodeBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return b, nil
}

// transportError turns an http.Client failure into a *NetworkError unless the
// caller gave up first.
func transportError(op string, err error) error {
	if netx.IsTransportError(err) {
		return &NetworkError{Op: op, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func drain(r io.Reader) {
	_, _ = io.Copy(io.Discard, io.LimitReader(r, 64<<10))
}
