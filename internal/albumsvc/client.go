// Package albumsvc is a client for the remote photo-album service.
//
// The service speaks a small JSON protocol:
//  1. POST /accounts/login exchanges an e-mail and password for a bearer token
//  2. GET /users/{user}/albums lists every album for the account
//  3. POST /users/{user}/albums/{album}/photos uploads one image as the raw
//     request body
//
// Tokens are returned to the caller and never stored on the Client, so a
// Client may be shared freely between goroutines.
package albumsvc

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/zerolog/log"
)

const (
	// defaultTimeout bounds the login and album-list calls. Uploads are
	// bounded only by their context.
	defaultTimeout = 30 * time.Second

	userAgent = "photo-uploader/1.0"
)

var (
	// ErrUnauthorized is returned when the service rejects the credentials
	// or token (HTTP 401/403).
	ErrUnauthorized = errors.New("albumsvc: unauthorized")
	// ErrUnavailable is returned for network failures and 5xx responses.
	ErrUnavailable = errors.New("albumsvc: service unavailable")
)

// Client talks to one album service base URL.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a client for baseURL with gzip-aware transport.
func NewClient(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{
			Transport: gzhttp.Transport(http.DefaultTransport),
		},
		baseURL: baseURL,
	}
}

// APIError is a non-2xx reply from the service.
type APIError struct {
	Status  int
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("album service error: %s (status: %d, code: %d)", e.Message, e.Status, e.Code)
}

// Unwrap maps the HTTP status onto the package sentinels.
func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden:
		return ErrUnauthorized
	case e.Status >= 500:
		return ErrUnavailable
	}
	return nil
}

// errorEnvelope is the error body the service returns.
type errorEnvelope struct {
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error,omitempty"`
}

// do sends req and decodes a 2xx JSON body into out.
func (c *Client) do(req *http.Request, out any) error {
	startTime := time.Now()
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	log.Debug().Str("method", req.Method).Str("path", req.URL.Path).Msg("Album service request")
	resp, err := c.httpClient.Do(req)
	duration := time.Since(startTime)
	if err != nil {
		log.Debug().Int("statusCode", 0).Dur("duration", duration).Err(err).Msg("Album service response")
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return fmt.Errorf("request failed: %w", ctxErr)
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	log.Debug().Int("statusCode", resp.StatusCode).Dur("duration", duration).Msg("Album service response")

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: truncate(string(body), 200)}
		var env errorEnvelope
		if json.Unmarshal(body, &env) == nil && env.Error != nil {
			apiErr.Message = env.Error.Message
			apiErr.Code = env.Error.Code
		}
		log.Warn().Str("errorMessage", apiErr.Message).Int("status", apiErr.Status).Int("errorCode", apiErr.Code).Msg("Album service error")
		return apiErr
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response: %w (body: %s)", err, truncate(string(body), 200))
	}
	return nil
}

// truncate returns at most the first n bytes of s, cut back to a rune
// boundary, appending "..." if truncated.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
