package albumsvc

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"

	"github.com/fpang/photo-uploader/internal/catalog"
)

type albumsResponse struct {
	Albums []catalog.Album `json:"albums"`
}

// ListAlbums fetches every album for user in one request. An account with
// no albums returns an empty slice and no error.
func (c *Client) ListAlbums(ctx context.Context, token, user string) ([]catalog.Album, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/users/%s/albums", c.baseURL, url.PathEscape(user))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	var resp albumsResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	if resp.Albums == nil {
		resp.Albums = []catalog.Album{}
	}

	log.Debug().Int("count", len(resp.Albums)).Msg("Albums listed")
	return resp.Albums, nil
}
