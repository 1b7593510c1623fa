package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"trustgate/internal/scoring"
)

type tierRow struct {
	Tier        scoring.Tier        `yaml:"tier" json:"tier"`
	MinScore    int                 `yaml:"min_score" json:"min_score"`
	Permissions scoring.Permissions `yaml:"permissions" json:"permissions"`
}

func newTiersCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tiers",
		Short: "Print the trust tier table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rows := tierTable()
			return root.write(cmd.OutOrStdout(), rows, func(w io.Writer) error {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "TIER\tMIN SCORE\tMESSAGING\tDATA\tPRIORITY SUPPORT\tAPI")
				for _, r := range rows {
					p := r.Permissions
					fmt.Fprintf(tw, "%d\t%d\t%t\t%s\t%t\t%t\n",
						r.Tier, r.MinScore, p.Messaging, p.DataAccess, p.PrioritySupport, p.APIAccess)
				}
				return tw.Flush()
			})
		},
	}
}

func tierTable() []tierRow {
	rows := make([]tierRow, 0, len(scoring.Tiers()))
	for _, t := range scoring.Tiers() {
		rows = append(rows, tierRow{Tier: t, MinScore: minScore(t), Permissions: scoring.PermissionsFor(t)})
	}
	return rows
}

// minScore finds the lowest score that maps to t.
func minScore(t scoring.Tier) int {
	for score := 0; score <= 100; score++ {
		if scoring.TierFor(score) == t {
			return score
		}
	}
	return -1
}
