package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/amiyamandal-dev/topalbums/internal/domain"
	"github.com/amiyamandal-dev/topalbums/internal/metrics"
	"github.com/amiyamandal-dev/topalbums/internal/reachability"
	"github.com/amiyamandal-dev/topalbums/internal/remote"
	"github.com/amiyamandal-dev/topalbums/internal/service"
)

func newSyncCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Fetch the chart and replace the cached albums",
		Long: `Fetch the current top albums chart and replace the local copy.

The cached albums are left untouched when the fetch fails.

Examples:
  albumctl sync
  albumctl sync -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := opts.openSession(ctx, false)
			if err != nil {
				return err
			}
			defer s.Close()

			client := remote.NewClient(s.cfg.Fetch, metrics.Nop{}, s.log)
			checker := reachability.New(s.cfg.Reachability, s.log)
			syncService := service.NewSyncService(client, s.store, nil, checker, metrics.Nop{}, s.cfg.Fetch.Timeout, s.log)

			p := newPrinter(cmd.OutOrStdout(), opts.output)

			outcome, err := syncService.SyncAlbums(ctx)
			if err != nil {
				fe := domain.AsFetchError(err)
				if p.structured() {
					if perr := p.print(fe.View(), nil); perr != nil {
						return perr
					}
				}
				return syncError(fe)
			}

			if p.structured() {
				return p.print(outcome, nil)
			}

			if outcome.Empty {
				p.warn(domain.MsgNoRecords)
				return nil
			}
			p.ok("Synced %d albums from %s", outcome.AlbumCount, client.URL())
			return p.print(nil, func(w io.Writer) {
				fmt.Fprintf(w, "  sync id\t%s\n", outcome.ID)
				fmt.Fprintf(w, "  took\t%s\n", outcome.FinishedAt.Sub(outcome.StartedAt).Round(time.Millisecond))
			})
		},
	}
}

// syncError renders a failed sync as the user-facing message with its kind
// and code
func syncError(fe *domain.FetchError) error {
	if fe.Code != 0 {
		return fmt.Errorf("%s (%s, code %d)", fe.Message, fe.Kind, fe.Code)
	}
	return fmt.Errorf("%s (%s)", fe.Message, fe.Kind)
}
