package cli

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/fpang/photo-uploader/internal/auth"
	"github.com/fpang/photo-uploader/internal/uploader"
)

// ValidateAndResolveDirectory checks that the path exists and is a directory,
// then returns the absolute path. Exits fatally on failure.
func ValidateAndResolveDirectory(dirPath string) string {
	info, err := os.Stat(dirPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Fatal().Str("path", dirPath).Msg("Photo directory not found")
		}
		log.Fatal().Err(err).Str("path", dirPath).Msg("Failed to access photo directory")
	}
	if !info.IsDir() {
		log.Fatal().Str("path", dirPath).Msg("Photo path is not a directory")
	}

	absPath, err := filepath.Abs(dirPath)
	if err == nil {
		dirPath = absPath
	}

	return dirPath
}

// FailureHint returns the operator-facing advice for err.
func FailureHint(err error) string {
	var f *uploader.Failure
	if errors.As(err, &f) {
		switch f.Category {
		case uploader.CategoryConfiguration:
			return "Set username and password in the config file, PHOTO_UPLOADER_PASSWORD, password_ssm_param or ~/.photo-uploader/credentials.gpg"
		case uploader.CategoryConnectivity:
			return "No usable network. Check the connection or set network: any"
		case uploader.CategoryAuthentication:
			return "The album service rejected the credentials. Check username and password"
		case uploader.CategoryCatalog:
			return "Create an album with the album service first"
		case uploader.CategoryTransfer:
			return "The upload was interrupted. Try again later"
		}
	}

	var validationErr *auth.ValidationError
	if errors.As(err, &validationErr) {
		switch validationErr.Type {
		case auth.ErrTypeNoUsername:
			return "No username configured. Set username or PHOTO_UPLOADER_USERNAME"
		case auth.ErrTypeNoPassword:
			return "No password configured. Set PHOTO_UPLOADER_PASSWORD or store it in ~/.photo-uploader/credentials.gpg"
		}
	}
	return "Unexpected error"
}

// HandleFailure logs err with its hint and exits.
func HandleFailure(err error) {
	var f *uploader.Failure
	if errors.As(err, &f) {
		log.Fatal().Err(f.Err).Str("category", f.Category.String()).Str("hint", FailureHint(err)).Msg(f.Message)
	}
	log.Fatal().Err(err).Str("hint", FailureHint(err)).Msg("Command failed")
	os.Exit(1)
}
