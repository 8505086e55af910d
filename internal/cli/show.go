package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/amiyamandal-dev/topalbums/internal/domain"
)

func newShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id|rank>",
		Short: "Show one cached album",
		Long: `Show one cached album by its chart ID or its rank.

Examples:
  albumctl show 1
  albumctl show 1649434004 -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.openSession(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer s.Close()

			album, err := s.albums.Album(cmd.Context(), args[0])
			if err != nil {
				if errors.Is(err, domain.ErrAlbumNotFound) {
					return fmt.Errorf("album %q not found", args[0])
				}
				return err
			}

			p := newPrinter(cmd.OutOrStdout(), opts.output)
			if p.structured() {
				return p.print(newAlbumRow(*album), nil)
			}

			p.header("#%d %s", album.Rank, album.DisplayName())
			return p.print(nil, func(w io.Writer) {
				fmt.Fprintf(w, "Artist:\t%s\n", album.ArtistName)
				fmt.Fprintf(w, "Release:\t%s\n", orDash(album.ReleaseLabel()))
				fmt.Fprintf(w, "Genres:\t%s\n", joinOrDash(album.GenreNames()))
				if album.ContentAdvisoryRating != "" {
					fmt.Fprintf(w, "Advisory:\t%s\n", album.ContentAdvisoryRating)
				}
				fmt.Fprintf(w, "ID:\t%s\n", album.ID)
				fmt.Fprintf(w, "Artwork:\t%s\n", orDash(album.ArtworkURL))
				fmt.Fprintf(w, "URL:\t%s\n", orDash(album.URL))
			})
		},
	}
}
