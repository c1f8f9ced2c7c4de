package kamatera

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var ErrMissingCredentials = errors.New("API key and secret are required")

// APIError is returned for any non-2xx response.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: status %d (%s)", e.Method, e.Path, e.StatusCode, e.Body)
}

// Client talks to the Kamatera control-plane API. Authentication is two
// static headers on every request.
type Client struct {
	baseURL    string
	clientID   string
	secret     string
	httpClient *http.Client
}

func NewClient(baseURL, clientID, secret string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		clientID:   clientID,
		secret:     secret,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Do performs one request. GET payloads are sent as query parameters,
// everything else as a JSON body. A JSON response is decoded into a generic
// value; anything else comes back as a string.
func (c *Client) Do(ctx context.Context, method, path string, payload any) (any, error) {
	body, err := c.do(ctx, method, path, payload)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return "", nil
	}
	var out any
	if err := json.Unmarshal(body, &out); err != nil {
		return string(body), nil
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	if c.clientID == "" || c.secret == "" {
		return nil, ErrMissingCredentials
	}

	target := c.baseURL + path
	var reader io.Reader
	if payload != nil {
		if method == http.MethodGet {
			q, err := queryValues(payload)
			if err != nil {
				return nil, err
			}
			if len(q) > 0 {
				target += "?" + q.Encode()
			}
		} else {
			encoded, err := json.Marshal(payload)
			if err != nil {
				return nil, fmt.Errorf("failed to encode %s %s payload: %w", method, path, err)
			}
			reader = bytes.NewReader(encoded)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request %s %s: %w", method, path, err)
	}
	req.Header.Set("AuthClientId", c.clientID)
	req.Header.Set("AuthSecret", c.secret)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s %s failed: %w", method, path, err)
	}
	data, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return nil, fmt.Errorf("read response from %s %s failed: %w", method, path, readErr)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(data)),
		}
	}
	return data, nil
}

func queryValues(payload any) (url.Values, error) {
	q := url.Values{}
	switch p := payload.(type) {
	case url.Values:
		return p, nil
	case map[string]string:
		for k, v := range p {
			q.Set(k, v)
		}
	case map[string]any:
		for k, v := range p {
			q.Set(k, fmt.Sprint(v))
		}
	default:
		return nil, fmt.Errorf("unsupported GET parameters of type %T", payload)
	}
	return q, nil
}
