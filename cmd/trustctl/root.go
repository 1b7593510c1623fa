package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type rootOptions struct {
	now    string
	output string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:          "trustctl",
		Short:        "Score, rank and inspect submissions offline",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.now, "now", "", "Evaluation time (RFC3339, default current time)")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", "text", "Output format (text|yaml|json)")

	root.AddCommand(
		newScoreCmd(opts),
		newRankCmd(opts),
		newTiersCmd(opts),
		newAdjustCmd(opts),
	)
	return root
}

func (o *rootOptions) evalTime() (time.Time, error) {
	if o.now == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, o.now)
	if err != nil {
		return time.Time{}, fmt.Errorf("--now must be RFC3339: %w", err)
	}
	return t.UTC(), nil
}

// write renders v as yaml or json, or calls text for the default format.
func (o *rootOptions) write(w io.Writer, v any, text func(io.Writer) error) error {
	switch o.output {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "text", "":
		return text(w)
	default:
		return fmt.Errorf("unknown output format %q", o.output)
	}
}

// readYAML decodes the file at path, or stdin for "-", into v.
func readYAML(path string, stdin io.Reader, v any) error {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
