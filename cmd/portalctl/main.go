// Command portalctl runs the portal's pure derivations from the shell: credit scores,
// dashboard aggregates over a saved loan list, and development session tokens.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/loangraph/portal/internal/config"
	"github.com/loangraph/portal/internal/dashboard"
	"github.com/loangraph/portal/internal/domain/loan"
	"github.com/loangraph/portal/internal/score"
	"github.com/loangraph/portal/internal/session"
	"github.com/loangraph/portal/internal/version"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "portalctl",
		Short:        "Loan portal utilities",
		Version:      version.Version,
		SilenceUsage: true,
	}
	root.AddCommand(newScoreCmd(), newAggregateCmd(), newTokenCmd())
	return root
}

func newScoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score <identifier>",
		Short: "Derive the credit score for a PAN",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, ok := score.NewHashScorer().Derive(args[0])
			if !ok || !score.ValidIdentifier(args[0]) {
				return fmt.Errorf("%q is not a valid PAN (5 letters, 4 digits, 1 letter)", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "score: %d\nfingerprint: %s\n", value, score.Fingerprint(args[0]))
			return nil
		},
	}
}

func newAggregateCmd() *cobra.Command {
	var role, name, query, status string
	cmd := &cobra.Command{
		Use:   "aggregate <records.json>",
		Short: "Build the dashboard view for a saved loan list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var records []loan.Record
			if err := json.Unmarshal(raw, &records); err != nil {
				return fmt.Errorf("decode %s: %w", args[0], err)
			}
			who := session.Identity{ID: "cli", DisplayName: name, Role: session.ParseRole(role)}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(dashboard.Build(who, records, query, status))
		},
	}
	cmd.Flags().StringVar(&role, "role", string(session.RoleAdmin), "viewer role (ADMIN or USER)")
	cmd.Flags().StringVar(&name, "name", "", "viewer display name")
	cmd.Flags().StringVar(&query, "query", "", "free-text filter")
	cmd.Flags().StringVar(&status, "status", "", "status filter")
	return cmd
}

func newTokenCmd() *cobra.Command {
	cfg := config.Load()
	var sub, role, name string
	var ttl time.Duration
	var key string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if key == "" {
				return fmt.Errorf("signing key required (--key or SESSION_SIGNING_KEY)")
			}
			tok, err := session.NewTokenMinter(cfg.SessionIssuer, key).Mint(session.Identity{
				ID:          sub,
				DisplayName: name,
				Role:        session.ParseRole(role),
			}, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&sub, "sub", "", "user id")
	cmd.Flags().StringVar(&role, "role", string(session.RoleUser), "role claim")
	cmd.Flags().StringVar(&name, "name", "", "name claim")
	cmd.Flags().DurationVar(&ttl, "ttl", cfg.SessionTTL, "token lifetime, 0 for none")
	cmd.Flags().StringVar(&key, "key", cfg.SessionSigningKey, "HS256 signing key")
	_ = cmd.MarkFlagRequired("sub")
	return cmd
}
