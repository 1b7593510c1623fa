package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"trustgate/internal/scoring"
)

type adjustReport struct {
	Action   scoring.Action `yaml:"action" json:"action"`
	Previous int            `yaml:"previous" json:"previous"`
	Delta    int            `yaml:"delta" json:"delta"`
	Score    int            `yaml:"score" json:"score"`
	Tier     scoring.Tier   `yaml:"tier" json:"tier"`
}

func newAdjustCmd(root *rootOptions) *cobra.Command {
	var (
		score      int
		action     string
		value      int
		verifiedAt string
	)
	cmd := &cobra.Command{
		Use:   "adjust",
		Short: "Preview a trust action against a score",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			now, err := root.evalTime()
			if err != nil {
				return err
			}
			parsed, err := scoring.ParseAction(action)
			if err != nil {
				return err
			}
			var valuePtr *int
			if cmd.Flags().Changed("value") {
				valuePtr = &value
			}
			var verified *time.Time
			if verifiedAt != "" {
				t, err := time.Parse(time.RFC3339, verifiedAt)
				if err != nil {
					return fmt.Errorf("--verified-at must be RFC3339: %w", err)
				}
				verified = &t
			}

			delta, err := scoring.TrustDelta(parsed, valuePtr, verified, now)
			if err != nil {
				return err
			}
			next := scoring.ApplyTrustDelta(score, delta)
			report := adjustReport{Action: parsed, Previous: score, Delta: delta, Score: next, Tier: scoring.TierFor(next)}
			return root.write(cmd.OutOrStdout(), report, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "%s: %d %+d -> %d (tier %d)\n", report.Action, report.Previous, report.Delta, report.Score, report.Tier)
				return err
			})
		},
	}
	cmd.Flags().IntVar(&score, "score", 50, "Current trust score")
	cmd.Flags().StringVar(&action, "action", "", "Trust action (admin_approval, admin_denial, positive_interaction, negative_interaction, time_based)")
	cmd.Flags().IntVar(&value, "value", 0, "Override the action's default magnitude")
	cmd.Flags().StringVar(&verifiedAt, "verified-at", "", "Verification time for time_based (RFC3339)")
	_ = cmd.MarkFlagRequired("action")
	return cmd
}
