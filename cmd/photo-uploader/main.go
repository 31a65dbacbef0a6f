package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/photo-uploader/internal/app"
	"github.com/fpang/photo-uploader/internal/cli"
	"github.com/fpang/photo-uploader/internal/config"
	"github.com/fpang/photo-uploader/internal/logging"
	"github.com/fpang/photo-uploader/internal/metrics"
	"github.com/fpang/photo-uploader/internal/notify"
)

var version = "dev"

// CLI flags
var (
	configFlag   string
	photoDirFlag string
	albumFlag    string
	dryRunFlag   bool
)

var rootCmd = &cobra.Command{
	Use:   "photo-uploader",
	Short: "Upload new camera photos to an online album as they appear",
	Long: `Photo Uploader watches a camera folder and uploads every photo taken after it
starts to the configured album. Photos already present at startup are left
alone. Each upload shows its progress, and a failure names its cause.

Settings are read from ~/.photo-uploader/config.yaml and re-read when the file
changes, so the album can be switched without a restart.

Examples:
  photo-uploader
  photo-uploader --album "Camera Uploads"
  photo-uploader --photo-dir ~/DCIM --dry-run
  photo-uploader albums --select`,
	Run: runMain,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", config.DefaultPath(), "Path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&albumFlag, "album", "", "Album to upload into (overrides the config file)")
	rootCmd.Flags().StringVarP(&photoDirFlag, "photo-dir", "d", "", "Directory to watch (overrides the config file)")
	rootCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Index the directory and list captures without uploading")
	rootCmd.AddCommand(albumsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadSettings opens the config store. --album is applied through the
// environment override so it survives config reloads.
func loadSettings() *config.Store {
	if albumFlag != "" {
		os.Setenv(config.EnvAlbum, albumFlag)
	}
	store, err := config.NewStore(configFlag)
	if err != nil {
		log.Fatal().Err(err).Str("path", configFlag).Msg("Failed to load config")
	}
	if err := store.Current().Validate(); err != nil {
		log.Fatal().Err(err).Str("path", configFlag).Msg("Invalid config")
	}
	return store
}

func runMain(cmd *cobra.Command, args []string) {
	initStart := time.Now()
	logging.Init()
	metrics.SetProgram("photo-uploader")

	store := loadSettings()
	s := store.Current()
	if !s.Metrics {
		metrics.SetOutput(io.Discard)
	}

	photoDir := s.PhotoDir
	if photoDirFlag != "" {
		photoDir = photoDirFlag
	}
	photoDir = cli.ValidateAndResolveDirectory(photoDir)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	displays := []notify.Display{notify.NewLogDisplay()}
	if s.NotificationsEnabled() {
		displays = append(displays, notify.NewZenityDisplay())
	}

	a := app.New(app.Config{
		Deps:     cli.InitServices(ctx, store),
		Displays: displays,
		PhotoDir: photoDir,
	})

	if dryRunFlag {
		if err := a.DryRun(ctx, os.Stdout); err != nil {
			log.Fatal().Err(err).Msg("Dry run failed")
		}
		return
	}

	if err := a.StartWatching(ctx); err != nil {
		log.Fatal().Err(err).Str("path", photoDir).Msg("Failed to start watching")
	}

	logging.NewStartupLogger("photo-uploader").
		Version(version).
		Path("config", store.Path()).
		Path("photoDir", photoDir).
		Path("stateDir", s.StateDir).
		Bucket("archive", s.Archive.Bucket).
		Config("album", s.Album).
		Config("network", string(s.Network)).
		Feature("notifications", s.NotificationsEnabled()).
		Feature("metrics", s.Metrics).
		Feature("ssmPassword", s.PasswordSSMParam != "").
		Count("watermark", a.Watermark()).
		InitDuration(time.Since(initStart)).
		Log()

	<-ctx.Done()
	a.ShutdownImmediately()
}
