package netease

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const defaultUserAgent = "freemusic/1.0"

// ErrEmpty is returned when the API answered successfully but carried no usable payload
var ErrEmpty = errors.New("netease: empty response")

// StatusError reports a non-200 API code or HTTP status
type StatusError struct {
	Endpoint string
	Code     int
	Message  string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("netease: %s code %d: %s", e.Endpoint, e.Code, e.Message)
	}
	return fmt.Sprintf("netease: %s code %d", e.Endpoint, e.Code)
}

// Init creates a client for the API deployment at baseURL
func Init(baseURL, cookie string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Cookie:     cookie,
		UserAgent:  defaultUserAgent,
		HttpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) buildURL(endpoint string, params url.Values) string {
	u := c.BaseURL + "/" + strings.TrimLeft(endpoint, "/")
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

// get performs a GET request and decodes the JSON body into out.
// out must embed baseResponse so the API code can be checked.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out interface{ status() (int, string) }) error {
	requestURL := c.buildURL(endpoint, params)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.UserAgent)
	if c.Cookie != "" {
		req.Header.Set("Cookie", c.Cookie)
	}

	start := time.Now()
	resp, err := c.HttpClient.Do(req)
	if err != nil {
		return fmt.Errorf("netease: %s request failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	log.Debug().
		Str("endpoint", endpoint).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("netease request")

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("netease: %s read response: %w", endpoint, err)
	}

	if resp.StatusCode != http.StatusOK {
		// the API mirrors its code in the body, prefer that message when present
		var base baseResponse
		_ = json.Unmarshal(body, &base)
		_, msg := base.status()
		return &StatusError{Endpoint: endpoint, Code: resp.StatusCode, Message: msg}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("netease: %s decode: %w", endpoint, err)
	}
	if code, msg := out.status(); code != http.StatusOK {
		return &StatusError{Endpoint: endpoint, Code: code, Message: msg}
	}
	return nil
}
