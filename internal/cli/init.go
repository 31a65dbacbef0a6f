package cli

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/fpang/photo-uploader/internal/albumsvc"
	"github.com/fpang/photo-uploader/internal/archive"
	"github.com/fpang/photo-uploader/internal/auth"
	"github.com/fpang/photo-uploader/internal/awsboot"
	"github.com/fpang/photo-uploader/internal/config"
	"github.com/fpang/photo-uploader/internal/netgate"
	"github.com/fpang/photo-uploader/internal/uploader"
)

// InitServices builds the upload pipeline's collaborators from the current
// settings. AWS is only contacted when an SSM password parameter or an
// archive bucket is configured. Exits fatally if that fails.
func InitServices(ctx context.Context, store *config.Store) uploader.Deps {
	s := store.Current()

	deps := uploader.Deps{
		Settings: store,
		Gate:     netgate.New(),
		Service:  albumsvc.NewClient(s.ServiceURL),
	}

	var loader auth.SecretLoader
	if s.PasswordSSMParam != "" || s.Archive.Enabled() {
		clients, err := awsboot.InitAWS(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("AWS is required for password_ssm_param or archive but could not be initialised")
		}
		loader = awsboot.CachedSecretLoader(clients.SSM)

		if s3c := awsboot.InitS3Optional(clients.Config, s.Archive.Bucket); s3c != nil {
			deps.Archive = archive.NewMirror(s3c.Client, s3c.Bucket, s.Archive.Prefix)
			log.Info().Str("bucket", s3c.Bucket).Str("prefix", s.Archive.Prefix).Msg("Archive mirror enabled")
		}
	}

	deps.Password = func(ctx context.Context, s config.Settings) string {
		return auth.ResolvePassword(ctx, auth.PasswordSources{
			Configured: s.Password,
			SSMParam:   s.PasswordSSMParam,
			LoadSecret: loader,
		})
	}

	log.Info().Str("service", s.ServiceURL).Str("network", string(s.Network)).Msg("Upload services initialised")
	return deps
}
