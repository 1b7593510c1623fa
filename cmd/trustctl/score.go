package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"trustgate/internal/scoring"
)

type scoreReport struct {
	Name              string              `yaml:"name" json:"name"`
	RiskScore         int                 `yaml:"risk_score" json:"risk_score"`
	RiskLevel         scoring.RiskLevel   `yaml:"risk_level" json:"risk_level"`
	RiskFactors       scoring.RiskFactors `yaml:"risk_factors" json:"risk_factors"`
	Urgency           int                 `yaml:"urgency" json:"urgency"`
	Credibility       int                 `yaml:"credibility" json:"credibility"`
	StrictCredibility *int                `yaml:"strict_credibility,omitempty" json:"strict_credibility,omitempty"`
	TrustScore        int                 `yaml:"trust_score" json:"trust_score"`
	Tier              scoring.Tier        `yaml:"tier" json:"tier"`
	Priority          float64             `yaml:"priority" json:"priority"`
}

func newScoreCmd(root *rootOptions) *cobra.Command {
	var (
		file   string
		strict bool
	)
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score one submission",
		Long: "Reads submission attributes from a YAML file and prints the risk, urgency,\n" +
			"credibility and initial trust scores the intake pipeline would persist.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			now, err := root.evalTime()
			if err != nil {
				return err
			}
			var attrs scoring.SubmissionAttributes
			if err := readYAML(file, cmd.InOrStdin(), &attrs); err != nil {
				return err
			}
			if attrs.CreatedAt.IsZero() {
				attrs.CreatedAt = now
			}

			report := buildScoreReport(attrs, now, strict)
			return root.write(cmd.OutOrStdout(), report, func(w io.Writer) error {
				return writeScoreText(w, report)
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "Submission YAML (- for stdin)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Also report the strict credibility variant")
	return cmd
}

func buildScoreReport(attrs scoring.SubmissionAttributes, now time.Time, strict bool) scoreReport {
	a := scoring.ScoreSubmission(attrs, now)
	report := scoreReport{
		Name:        attrs.Name,
		RiskScore:   a.RiskScore,
		RiskLevel:   a.RiskLevel,
		RiskFactors: a.RiskFactors,
		Urgency:     a.Urgency,
		Credibility: a.Credibility,
		TrustScore:  a.TrustScore,
		Tier:        scoring.TierFor(a.TrustScore),
		Priority:    a.Priority,
	}
	if strict {
		c := scoring.CalculateStrictCredibility(attrs)
		report.StrictCredibility = &c
	}
	return report
}

func writeScoreText(w io.Writer, r scoreReport) error {
	f := r.RiskFactors
	_, err := fmt.Fprintf(w,
		"%s\n  risk:        %d (%s)\n    email domain %+d, phone %+d, gov id %+d, organization %+d, document %+d, verified email %+d\n"+
			"  urgency:     %d\n  credibility: %d\n",
		r.Name, r.RiskScore, r.RiskLevel,
		f.EmailDomain, f.PhoneFormat, f.GovIDFormat, f.Organization, f.DocumentUpload, f.CompanyEmailVerified,
		r.Urgency, r.Credibility,
	)
	if err != nil {
		return err
	}
	if r.StrictCredibility != nil {
		if _, err := fmt.Fprintf(w, "  strict:      %d\n", *r.StrictCredibility); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "  trust:       %d (tier %d)\n  priority:    %.1f\n", r.TrustScore, r.Tier, r.Priority)
	return err
}
