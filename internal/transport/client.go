// Package transport provides the HTTP plumbing shared by the merchant
// endpoint clients: an authenticated client and a JSON response decoder that
// knows about the auth interstitial quirk of the upstream endpoints.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/price-visibility-booster/pkg/errors"
	"github.com/google/price-visibility-booster/pkg/logging"
)

// DefaultHTTPTimeout bounds a single round trip. Runs are synchronous, so a
// hung request would otherwise stall the whole pipeline.
var DefaultHTTPTimeout = 60 * time.Second

// Client provides HTTP client functionality with authentication.
type Client struct {
	http *http.Client
	auth Authenticator
}

// New creates a new transport client with the specified authenticator.
func New(auth Authenticator) *Client {
	if auth == nil {
		auth = &NoAuth{}
	}
	return &Client{
		http: &http.Client{Timeout: DefaultHTTPTimeout},
		auth: auth,
	}
}

// Do performs an HTTP request with authentication and common headers applied.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if err := c.auth.Apply(ctx, req); err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	if req.Method == http.MethodPost || req.Method == http.MethodPut || req.Method == http.MethodPatch {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.http.Do(req)
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.WrapIO("create", "GET "+url, err)
	}
	return c.Do(ctx, req)
}

// PostJSON performs a POST request with a JSON-encoded body.
func (c *Client) PostJSON(ctx context.Context, url string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, errors.WrapParse("json", "request body", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.WrapIO("create", "POST "+url, err)
	}
	return c.Do(ctx, req)
}

// DecodeResponse decodes a JSON response into the target structure.
//
// A body that opens with an HTML document marker is an auth or error
// interstitial served in place of JSON; it decodes as an empty successful
// object, leaving the target untouched, never as a parse failure.
func DecodeResponse(ctx context.Context, resp *http.Response, target any) error {
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Failed to close response body")
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.WrapIO("read", "response body", err)
	}

	if isHTMLInterstitial(body) {
		logging.Ctx(ctx).Debug().Int("status", resp.StatusCode).
			Msg("HTML interstitial in place of JSON, treating as empty response")
		return nil
	}

	if resp.StatusCode != http.StatusOK {
		// The endpoints report their errors as {"error":{code,message}}
		// alongside the matching HTTP status. Decode those into the target
		// so the caller's retry policy can act on the reported code; a
		// non-200 body without an error envelope is fatal here.
		var envelope struct {
			Error json.RawMessage `json:"error"`
		}
		if json.Unmarshal(body, &envelope) == nil &&
			len(envelope.Error) > 0 && !bytes.Equal(envelope.Error, []byte("null")) {
			if err := json.Unmarshal(body, target); err == nil {
				return nil
			}
		}
		return &errors.APIError{
			Endpoint: resp.Request.URL.Path,
			Code:     resp.StatusCode,
			Message:  string(body),
		}
	}

	if len(body) == 0 {
		return nil
	}

	if err := json.Unmarshal(body, target); err != nil {
		return errors.WrapParse("json", "response", err)
	}

	return nil
}

// isHTMLInterstitial reports whether the body opens with an HTML document
// marker rather than JSON.
func isHTMLInterstitial(body []byte) bool {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '<'
}
