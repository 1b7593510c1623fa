package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"trustgate/internal/scoring"
)

type candidateFile struct {
	ID         string                       `yaml:"id"`
	Attributes scoring.SubmissionAttributes `yaml:"attributes"`
}

type rankedRow struct {
	Position    int               `yaml:"position" json:"position"`
	ID          string            `yaml:"id" json:"id"`
	Name        string            `yaml:"name" json:"name"`
	RiskScore   int               `yaml:"risk_score" json:"risk_score"`
	RiskLevel   scoring.RiskLevel `yaml:"risk_level" json:"risk_level"`
	Urgency     int               `yaml:"urgency" json:"urgency"`
	Credibility int               `yaml:"credibility" json:"credibility"`
	Priority    float64           `yaml:"priority" json:"priority"`
}

func newRankCmd(root *rootOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank a list of submissions by review priority",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			now, err := root.evalTime()
			if err != nil {
				return err
			}
			var entries []candidateFile
			if err := readYAML(file, cmd.InOrStdin(), &entries); err != nil {
				return err
			}

			candidates := make([]scoring.Candidate, 0, len(entries))
			for i, e := range entries {
				if e.ID == "" {
					e.ID = fmt.Sprintf("#%d", i+1)
				}
				if e.Attributes.CreatedAt.IsZero() {
					e.Attributes.CreatedAt = now
				}
				candidates = append(candidates, scoring.Candidate{ID: e.ID, Attributes: e.Attributes})
			}

			rows := rankRows(scoring.RankVerifications(candidates, now))
			return root.write(cmd.OutOrStdout(), rows, func(w io.Writer) error {
				return writeRankText(w, rows)
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "YAML list of {id, attributes} (- for stdin)")
	return cmd
}

func rankRows(ranked []scoring.RankedSubmission) []rankedRow {
	rows := make([]rankedRow, 0, len(ranked))
	for i, r := range ranked {
		rows = append(rows, rankedRow{
			Position:    i + 1,
			ID:          r.ID,
			Name:        r.Attributes.Name,
			RiskScore:   r.Risk.Score,
			RiskLevel:   r.Risk.Level,
			Urgency:     r.Urgency,
			Credibility: r.Credibility,
			Priority:    r.Priority,
		})
	}
	return rows
}

func writeRankText(w io.Writer, rows []rankedRow) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tID\tNAME\tRISK\tURGENCY\tCREDIBILITY\tPRIORITY")
	for _, r := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d (%s)\t%d\t%d\t%.1f\n",
			r.Position, r.ID, r.Name, r.RiskScore, r.RiskLevel, r.Urgency, r.Credibility, r.Priority)
	}
	return tw.Flush()
}
