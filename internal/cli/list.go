package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/amiyamandal-dev/topalbums/internal/domain"
)

type listOutput struct {
	Title     string     `json:"title" yaml:"title"`
	Copyright string     `json:"copyright" yaml:"copyright"`
	Total     int        `json:"total" yaml:"total"`
	Albums    []albumRow `json:"albums" yaml:"albums"`
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the cached albums in chart order",
		Long: `List the cached albums in chart order, followed by the feed copyright.

Examples:
  albumctl list
  albumctl list --limit 10
  albumctl list -o yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return fmt.Errorf("--limit must not be negative")
			}

			s, err := opts.openSession(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer s.Close()

			p := newPrinter(cmd.OutOrStdout(), opts.output)

			feed, ok := s.albums.Feed(cmd.Context())
			if !ok || feed.IsEmpty() {
				if p.structured() {
					return p.print(listOutput{Albums: []albumRow{}}, nil)
				}
				p.warn(domain.MsgNoRecords)
				return nil
			}

			albums := feed.Albums
			if limit > 0 && limit < len(albums) {
				albums = albums[:limit]
			}

			if p.structured() {
				return p.print(listOutput{
					Title:     feed.Title,
					Copyright: feed.Copyright,
					Total:     len(feed.Albums),
					Albums:    newAlbumRows(albums),
				}, nil)
			}

			p.header("%s (updated %s)", feed.Title, formatTime(feed.Updated))
			if err := p.print(nil, func(w io.Writer) { writeAlbumTable(w, albums) }); err != nil {
				return err
			}
			if len(albums) < len(feed.Albums) {
				fmt.Fprintf(p.out, "... %d more\n", len(feed.Albums)-len(albums))
			}
			fmt.Fprintln(p.out, feed.Copyright)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most n albums (0 shows all)")

	return cmd
}
