package albumsvc

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/fpang/photo-uploader/internal/auth"
)

type loginResponse struct {
	Token string `json:"token"`
}

// Authenticate exchanges id for a bearer token with a single request. Each
// call is independent: nothing is cached, and two calls may return
// different tokens.
func (c *Client) Authenticate(ctx context.Context, id auth.Identity) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	params := url.Values{
		"username": {id.Username},
		"password": {id.Password},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/accounts/login",
		strings.NewReader(params.Encode()))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var resp loginResponse
	if err := c.do(req, &resp); err != nil {
		return "", fmt.Errorf("authenticate: %w", err)
	}
	if resp.Token == "" {
		return "", fmt.Errorf("authenticate: no token in response")
	}

	log.Debug().Str("user", id.Username).Msg("Authenticated with album service")
	return resp.Token, nil
}
