package albumsvc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/photo-uploader/internal/transfer"
)

// Photo is one local image to upload.
type Photo struct {
	Path        string
	DisplayName string
	MIMEType    string
}

// UploadResult describes an accepted upload.
type UploadResult struct {
	ID        string
	BytesSent int64
	Duration  time.Duration
}

type uploadResponse struct {
	ID string `json:"id"`
}

// Upload streams photo into albumID. The file is read in chunks through a
// pipe and onProgress receives decile progress as bytes are handed to the
// transport. Cancelling ctx
// aborts the request and releases the file.
func (c *Client) Upload(ctx context.Context, token, user, albumID string, photo Photo, onProgress transfer.ProgressFunc) (UploadResult, error) {
	start := time.Now()

	tr, err := transfer.FromFile(photo.Path, onProgress)
	if err != nil {
		return UploadResult{}, err
	}

	pr, pw := io.Pipe()
	type writeResult struct {
		n   int64
		err error
	}
	done := make(chan writeResult, 1)
	go func() {
		n, err := tr.WriteTo(pw)
		pw.CloseWithError(err)
		done <- writeResult{n, err}
	}()

	endpoint := fmt.Sprintf("%s/users/%s/albums/%s/photos", c.baseURL, url.PathEscape(user), url.PathEscape(albumID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, pr)
	if err != nil {
		pr.Close()
		<-done
		return UploadResult{}, fmt.Errorf("build request: %w", err)
	}
	req.ContentLength = tr.Size
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", mimeOrDefault(photo.MIMEType))
	req.Header.Set("Slug", sanitizeSlug(photo.DisplayName))

	var resp uploadResponse
	doErr := c.do(req, &resp)

	// Unblocks the writer if the server answered before draining the body.
	pr.Close()
	wr := <-done

	if wr.err != nil && !errors.Is(wr.err, io.ErrClosedPipe) {
		return UploadResult{BytesSent: wr.n}, fmt.Errorf("stream %s: %w", photo.DisplayName, wr.err)
	}
	if doErr != nil {
		return UploadResult{BytesSent: wr.n}, fmt.Errorf("upload %s: %w", photo.DisplayName, doErr)
	}

	result := UploadResult{ID: resp.ID, BytesSent: wr.n, Duration: time.Since(start)}
	log.Info().
		Str("photo", photo.DisplayName).
		Str("albumId", albumID).
		Str("photoId", resp.ID).
		Int64("bytes", result.BytesSent).
		Dur("duration", result.Duration).
		Msg("Photo uploaded")
	return result, nil
}

func mimeOrDefault(m string) string {
	if m == "" {
		return "application/octet-stream"
	}
	return m
}

// sanitizeSlug keeps the Slug header to a single printable line.
func sanitizeSlug(name string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, name)
}
