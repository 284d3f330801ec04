package main

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"catalog/internal/config"
	"catalog/internal/media"
	"catalog/internal/store"
)

// extensionTypes maps known file extensions to media types for imports
// that do not state a type explicitly.
var extensionTypes = map[string]media.Type{
	".wav":  media.TypeAudio,
	".mp3":  media.TypeAudio,
	".m4a":  media.TypeAudio,
	".flac": media.TypeAudio,
	".ogg":  media.TypeAudio,
	".opus": media.TypeAudio,
	".png":  media.TypeImage,
	".jpg":  media.TypeImage,
	".jpeg": media.TypeImage,
	".webp": media.TypeImage,
	".html": media.TypeWebpage,
	".htm":  media.TypeWebpage,
}

func newAddCommand(ctx *commandContext) *cobra.Command {
	var title string
	var typeFlag string
	var tags []string
	var recursive bool

	cmd := &cobra.Command{
		Use:   "add <path>...",
		Short: "Import media files into the catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, logger *slog.Logger, st *store.Store) error {
				paths, err := collectSources(args, recursive)
				if err != nil {
					return err
				}
				if len(paths) == 0 {
					return fmt.Errorf("no files to import")
				}
				if title != "" && len(paths) > 1 {
					return fmt.Errorf("--title applies to a single file, got %d", len(paths))
				}

				rows := make([][]string, 0, len(paths))
				for _, path := range paths {
					mediaType := resolveType(typeFlag, path)
					object, err := st.PutMedia(cmd.Context(), path, title, mediaType, tags)
					if err != nil {
						return err
					}
					rows = append(rows, []string{shortID(object.ID), object.Title, string(object.Type), string(object.State)})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ID", "TITLE", "TYPE", "STATE"}, rows))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Title for the imported object (single file only)")
	cmd.Flags().StringVar(&typeFlag, "type", "", "Media type: audio, image, webpage, other (default: by extension)")
	cmd.Flags().StringArrayVar(&tags, "tag", nil, "Tag to attach (repeatable)")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Descend into directories")
	return cmd
}

func collectSources(args []string, recursive bool) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", arg, err)
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		if !recursive {
			return nil, fmt.Errorf("%s is a directory, pass --recursive to import its contents", arg)
		}
		err = filepath.WalkDir(arg, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if entry.IsDir() {
				if strings.HasPrefix(entry.Name(), ".") && path != arg {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.HasPrefix(entry.Name(), ".") {
				return nil
			}
			paths = append(paths, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return paths, nil
}

func resolveType(flag, path string) media.Type {
	if flag != "" {
		return media.ParseType(flag)
	}
	if mediaType, ok := extensionTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return mediaType
	}
	return media.TypeOther
}
