package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/amiyamandal-dev/topalbums/internal/auth"
)

type tokenOutput struct {
	Token     string    `json:"token" yaml:"token"`
	Subject   string    `json:"subject" yaml:"subject"`
	Scope     string    `json:"scope" yaml:"scope"`
	ExpiresAt time.Time `json:"expires_at" yaml:"expires_at"`
}

func newTokenCmd(opts *rootOptions) *cobra.Command {
	var (
		subject string
		expiry  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the sync and clear API routes",
		Long: `Issue a bearer token signed with auth.jwt_secret. The server requires
it on POST /api/v1/sync and DELETE /api/v1/feed.

Examples:
  albumctl token --subject ops
  curl -X POST -H "Authorization: Bearer $(albumctl token -o json | jq -r .token)" ...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return fmt.Errorf("auth.jwt_secret is not configured, the API routes are open")
			}
			if expiry <= 0 {
				expiry = cfg.Auth.TokenExpiry
			}

			token, expiresAt, err := auth.NewJWTManager(cfg.Auth.JWTSecret, expiry).GenerateToken(subject)
			if err != nil {
				return fmt.Errorf("issuing token: %w", err)
			}

			out := tokenOutput{Token: token, Subject: subject, Scope: auth.ScopeAdmin, ExpiresAt: expiresAt}
			p := newPrinter(cmd.OutOrStdout(), opts.output)
			if p.structured() {
				return p.print(out, nil)
			}

			fmt.Fprintln(p.out, token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "albumctl", "Token subject")
	cmd.Flags().DurationVar(&expiry, "expiry", 0, "Token lifetime (default: auth.token_expiry)")

	return cmd
}
