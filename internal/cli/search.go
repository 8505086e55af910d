package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amiyamandal-dev/topalbums/internal/search"
)

type searchOutput struct {
	Query   string     `json:"query" yaml:"query"`
	Genre   string     `json:"genre,omitempty" yaml:"genre,omitempty"`
	Total   int        `json:"total" yaml:"total"`
	Results []albumRow `json:"results" yaml:"results"`
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var (
		genre string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "search [text]",
		Short: "Search cached albums by name, artist or genre",
		Long: `Search the cached albums by album name and artist.
Use --genre to narrow results to one genre.

Examples:
  albumctl search midnights
  albumctl search "taylor swift"
  albumctl search --genre pop`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := ""
			if len(args) > 0 {
				text = strings.TrimSpace(args[0])
			}
			if text == "" && genre == "" {
				return fmt.Errorf("provide search text or use --genre")
			}

			s, err := opts.openSession(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer s.Close()

			result, err := s.albums.Search(cmd.Context(), &search.SearchQuery{
				Query: text,
				Genre: genre,
				Page:  1,
				Limit: limit,
			})
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}

			p := newPrinter(cmd.OutOrStdout(), opts.output)
			if p.structured() {
				return p.print(searchOutput{
					Query:   text,
					Genre:   genre,
					Total:   result.Total,
					Results: newAlbumRows(result.Albums),
				}, nil)
			}

			if len(result.Albums) == 0 {
				p.warn("No albums match")
				return nil
			}
			if err := p.print(nil, func(w io.Writer) { writeAlbumTable(w, result.Albums) }); err != nil {
				return err
			}
			fmt.Fprintf(p.out, "%d of %d matches\n", len(result.Albums), result.Total)
			return nil
		},
	}

	cmd.Flags().StringVar(&genre, "genre", "", "Only albums tagged with this genre")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of results")

	return cmd
}
