package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/photo-uploader/internal/catalog"
	"github.com/fpang/photo-uploader/internal/cli"
	"github.com/fpang/photo-uploader/internal/config"
	"github.com/fpang/photo-uploader/internal/logging"
	"github.com/fpang/photo-uploader/internal/uploader"
)

var selectFlag bool

var albumsCmd = &cobra.Command{
	Use:   "albums",
	Short: "List the albums available to the configured account",
	Long: `Albums signs in with the configured account and lists its albums in the
order the service returns them. The current album is marked with '*'.

With --select, prompts for an album and saves the choice to the config file.`,
	Run: runAlbums,
}

func init() {
	albumsCmd.Flags().BoolVar(&selectFlag, "select", false, "Choose an album and save it to the config file")
}

func runAlbums(cmd *cobra.Command, args []string) {
	logging.Init()

	store := loadSettings()
	ctx := context.Background()
	deps := cli.InitServices(ctx, store)

	albums, err := uploader.ResolveAlbumChoices(ctx, deps)
	if err != nil {
		cli.HandleFailure(err)
	}

	current := store.Current().Album
	if !selectFlag {
		for _, a := range albums {
			marker := " "
			if a.Name == current {
				marker = "*"
			}
			fmt.Printf("%s %s\n", marker, a.Name)
		}
		return
	}

	choice, err := cli.PromptForAlbum(catalog.List(albums), current, os.Stdin, os.Stdout)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid album choice")
	}
	if choice == "" || choice == current {
		return
	}
	if err := config.SetAlbum(store.Path(), choice); err != nil {
		log.Fatal().Err(err).Str("path", store.Path()).Msg("Failed to save album")
	}
	log.Info().Str("album", choice).Str("path", store.Path()).Msg("Album saved")
}
