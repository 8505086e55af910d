package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
)

type statusOutput struct {
	ChartURL  string     `json:"chart_url" yaml:"chart_url"`
	Driver    string     `json:"store_driver" yaml:"store_driver"`
	Location  string     `json:"store_location" yaml:"store_location"`
	Healthy   bool       `json:"store_healthy" yaml:"store_healthy"`
	Cached    bool       `json:"cached" yaml:"cached"`
	Title     string     `json:"title,omitempty" yaml:"title,omitempty"`
	Country   string     `json:"country,omitempty" yaml:"country,omitempty"`
	Updated   *time.Time `json:"updated,omitempty" yaml:"updated,omitempty"`
	Albums    int        `json:"albums" yaml:"albums"`
	Copyright string     `json:"copyright,omitempty" yaml:"copyright,omitempty"`
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the store and the cached chart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.openSession(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer s.Close()

			st := statusOutput{
				ChartURL: s.cfg.Fetch.URL(),
				Driver:   s.cfg.Store.Driver,
				Location: s.cfg.Store.Path,
				Healthy:  s.store.HealthCheck() == nil,
			}
			if s.cfg.Store.Driver == "redis" {
				st.Location = s.cfg.Store.RedisAddr
			}

			if feed, ok := s.albums.Feed(cmd.Context()); ok {
				st.Cached = true
				st.Title = feed.Title
				st.Country = feed.Country
				st.Albums = len(feed.Albums)
				st.Copyright = feed.Copyright
				if !feed.Updated.IsZero() {
					updated := feed.Updated
					st.Updated = &updated
				}
			}

			p := newPrinter(cmd.OutOrStdout(), opts.output)
			if p.structured() {
				return p.print(st, nil)
			}

			p.header("Store: %s (%s)", st.Driver, st.Location)
			if !st.Cached {
				p.warn("Nothing cached yet. Run: albumctl sync")
				return nil
			}
			return p.print(nil, func(w io.Writer) {
				fmt.Fprintf(w, "Chart:\t%s\n", st.Title)
				fmt.Fprintf(w, "Country:\t%s\n", orDash(st.Country))
				if st.Updated != nil {
					fmt.Fprintf(w, "Updated:\t%s\n", formatTime(*st.Updated))
				}
				fmt.Fprintf(w, "Albums:\t%d\n", st.Albums)
				fmt.Fprintf(w, "Source:\t%s\n", st.ChartURL)
				fmt.Fprintf(w, "Copyright:\t%s\n", orDash(st.Copyright))
			})
		},
	}
}
