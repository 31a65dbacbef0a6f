// Package uploader runs the per-capture upload sequence.
//
// For each task, strictly in order:
//  1. settings check (username and album present)
//  2. connectivity policy
//  3. password lookup and authentication
//  4. album resolution by exact name
//  5. progress-tracked upload
//
// Any step failing ends the task with a categorised Failure reported to the
// task's notifier. Nothing is retried.
package uploader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/photo-uploader/internal/albumsvc"
	"github.com/fpang/photo-uploader/internal/archive"
	"github.com/fpang/photo-uploader/internal/auth"
	"github.com/fpang/photo-uploader/internal/catalog"
	"github.com/fpang/photo-uploader/internal/config"
	"github.com/fpang/photo-uploader/internal/metrics"
	"github.com/fpang/photo-uploader/internal/transfer"
)

// SettingsSource supplies the current settings. *config.Store implements it.
type SettingsSource interface {
	Current() config.Settings
}

// Gate reports whether network use is permitted.
type Gate interface {
	CanConnect(policy config.NetworkPolicy) bool
}

// Service is the remote album service.
type Service interface {
	Authenticate(ctx context.Context, id auth.Identity) (string, error)
	ListAlbums(ctx context.Context, token, user string) ([]catalog.Album, error)
	Upload(ctx context.Context, token, user, albumID string, photo albumsvc.Photo, onProgress transfer.ProgressFunc) (albumsvc.UploadResult, error)
}

// Archiver stores a copy of an uploaded original.
type Archiver interface {
	Put(ctx context.Context, item archive.Item) (string, error)
}

// PasswordFunc resolves the password for the given settings.
type PasswordFunc func(ctx context.Context, s config.Settings) string

// Deps are the pipeline's collaborators.
type Deps struct {
	Settings SettingsSource
	Password PasswordFunc
	Gate     Gate
	Service  Service
	// Archive is optional.
	Archive Archiver
}

// Pipeline executes tasks.
type Pipeline struct {
	deps Deps
}

// NewPipeline returns a Pipeline over deps.
func NewPipeline(deps Deps) *Pipeline {
	return &Pipeline{deps: deps}
}

// resolveIdentity builds the identity for s, running the password lookup.
// The lookup may reach SSM or spawn gpg: call it only after the gate.
func resolveIdentity(ctx context.Context, deps Deps, s config.Settings) auth.Identity {
	id := auth.Identity{Username: s.Username, Password: s.Password}
	if deps.Password != nil {
		id.Password = deps.Password(ctx, s)
	}
	return id
}

// Handle is the queue handler: it runs the task, then logs and records
// metrics for the outcome.
func (p *Pipeline) Handle(ctx context.Context, t *Task) {
	start := time.Now()
	res, err := p.Run(ctx, t)
	elapsed := time.Since(start)

	result := "success"
	var f *Failure
	if errors.As(err, &f) {
		result = f.Category.String()
	}

	rec := metrics.New(metrics.Namespace).
		Dimension("Result", result).
		Metric("TaskMs", float64(elapsed.Milliseconds()), metrics.UnitMilliseconds).
		Count("Tasks").
		Property("taskId", t.ID.String())
	if res.BytesSent > 0 {
		rec.Metric("UploadBytes", float64(res.BytesSent), metrics.UnitBytes)
	}
	rec.Flush()

	evt := log.Info()
	if err != nil {
		evt = log.Warn().Err(err)
	}
	evt.Str("task", t.ID.String()).
		Str("capture", t.Capture.DisplayName).
		Int64("id", t.Capture.ID).
		Str("result", result).
		Dur("duration", elapsed).
		Msg("Upload task finished")
}

// Run performs the upload sequence for t and reports the outcome through
// t.Notifier. The returned error, if any, is a *Failure.
func (p *Pipeline) Run(ctx context.Context, t *Task) (albumsvc.UploadResult, error) {
	t.setState(StateRunning)

	res, f := p.run(ctx, t)
	if f != nil {
		t.setState(StateFailed)
		t.Notifier.Failed(f.Category.String(), f.Message)
		return res, f
	}

	t.setState(StateSucceeded)
	t.Notifier.Succeeded()
	p.archive(ctx, t)
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, t *Task) (albumsvc.UploadResult, *Failure) {
	s := p.deps.Settings.Current()
	if err := (auth.Identity{Username: s.Username}).ValidateUsername(); err != nil {
		return albumsvc.UploadResult{}, fail(CategoryConfiguration, msgNoCredentials, err)
	}
	if s.Album == "" {
		return albumsvc.UploadResult{}, fail(CategoryConfiguration, msgNoAlbum, nil)
	}

	token, username, f := connectAndAuthenticate(ctx, p.deps, s)
	if f != nil {
		return albumsvc.UploadResult{}, f
	}

	albums, err := catalog.Fetch(ctx, p.deps.Service, token, username)
	if err != nil {
		return albumsvc.UploadResult{}, fail(CategoryCatalog, msgCatalogFailed, err)
	}
	if albums.Empty() {
		return albumsvc.UploadResult{}, fail(CategoryCatalog, msgNoAlbums, nil)
	}
	album, ok := albums.Lookup(s.Album)
	if !ok {
		return albumsvc.UploadResult{}, fail(CategoryCatalog, fmt.Sprintf("Album %q not found. Choose another album.", s.Album), nil)
	}
	t.AlbumID = album.ID

	photo := albumsvc.Photo{
		Path:        t.Capture.Path,
		DisplayName: t.Capture.DisplayName,
		MIMEType:    t.Capture.MIMEType,
	}
	res, err := p.deps.Service.Upload(ctx, token, username, album.ID, photo, t.Notifier.Progress)
	if err != nil {
		return res, fail(CategoryTransfer, fmt.Sprintf("Upload of %s failed.", t.Capture.DisplayName), err)
	}
	return res, nil
}

// connectAndAuthenticate runs the connectivity and authentication steps
// shared by uploads and album listing. The password is resolved only after
// the gate allows network use; a missing password is a configuration
// failure.
func connectAndAuthenticate(ctx context.Context, deps Deps, s config.Settings) (token, username string, f *Failure) {
	if !deps.Gate.CanConnect(s.Network) {
		return "", "", fail(CategoryConnectivity, msgNoNetwork, nil)
	}

	id := resolveIdentity(ctx, deps, s)
	if err := id.Validate(); err != nil {
		return "", "", fail(CategoryConfiguration, msgNoCredentials, err)
	}

	token, err := deps.Service.Authenticate(ctx, id)
	if err != nil {
		return "", "", fail(CategoryAuthentication, msgAuthFailed, err)
	}
	if token == "" {
		return "", "", fail(CategoryAuthentication, msgAuthFailed, nil)
	}
	return token, id.Username, nil
}

func (p *Pipeline) archive(ctx context.Context, t *Task) {
	if p.deps.Archive == nil {
		return
	}
	_, err := p.deps.Archive.Put(ctx, archive.Item{
		Path:        t.Capture.Path,
		DisplayName: t.Capture.DisplayName,
		MIMEType:    t.Capture.MIMEType,
		TakenAt:     t.Capture.TakenAt,
		AlbumID:     t.AlbumID,
	})
	if err != nil {
		log.Warn().Err(err).Str("capture", t.Capture.DisplayName).Msg("Archive copy failed")
	}
}

// ResolveAlbumChoices lists the albums available to the configured
// account, in service order. It follows the same checks as an upload:
// username, connectivity, password, authentication, then the album list.
// An account with no albums is a catalog Failure.
func ResolveAlbumChoices(ctx context.Context, deps Deps) ([]catalog.Album, error) {
	s := deps.Settings.Current()
	if err := (auth.Identity{Username: s.Username}).ValidateUsername(); err != nil {
		return nil, fail(CategoryConfiguration, msgNoCredentials, err)
	}

	token, username, f := connectAndAuthenticate(ctx, deps, s)
	if f != nil {
		return nil, f
	}

	albums, err := catalog.Fetch(ctx, deps.Service, token, username)
	if err != nil {
		return nil, fail(CategoryCatalog, msgCatalogFailed, err)
	}
	if albums.Empty() {
		return nil, fail(CategoryCatalog, msgNoAlbums, nil)
	}
	return albums, nil
}
