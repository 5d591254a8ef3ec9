package main

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/facturaIA/identity-ocr-service/internal/idparse"
	"github.com/facturaIA/identity-ocr-service/internal/logger"
	"github.com/facturaIA/identity-ocr-service/internal/reftable"
	"github.com/facturaIA/identity-ocr-service/internal/services"
)

type parseOptions struct {
	year    int
	output  string
	table   string
	split   string
	verbose bool
}

type parseResult struct {
	Record         idparse.Record         `json:"record"`
	Review         *services.ReviewResult `json:"review"`
	FullyConfident bool                   `json:"fully_confident"`
	Observations   int                    `json:"observations"`
}

func newParseCmd() *cobra.Command {
	var opts parseOptions
	cmd := &cobra.Command{
		Use:   "parse [FILE...]",
		Short: "Parse observations of one document and print the record as JSON",
		Long: `Parse feeds every FILE, in order, as one observation to a single parser and
prints the final record. With no FILE, or when FILE is -, standard input is read.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, args, opts)
		},
	}
	cmd.Flags().IntVar(&opts.year, "year", 0, "current year for the adult-age rule (default: this year)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "nationality", "nationality output: nationality, country or code")
	cmd.Flags().StringVar(&opts.table, "table", "", "nationality table YAML (default: built-in)")
	cmd.Flags().StringVar(&opts.split, "split", "", "treat lines equal to this separator as observation boundaries")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "log field confirmations to stderr")
	return cmd
}

func runParse(cmd *cobra.Command, args []string, opts parseOptions) error {
	mode, err := idparse.ParseOutputMode(opts.output)
	if err != nil {
		return err
	}
	table, err := reftable.Load(opts.table)
	if err != nil {
		return err
	}

	log := zap.NewNop()
	if opts.verbose {
		if log, err = logger.New("debug", true); err != nil {
			return err
		}
		defer log.Sync()
	}

	observations, err := readObservations(cmd.InOrStdin(), args, opts.split)
	if err != nil {
		return err
	}

	p := idparse.New(idparse.Config{
		CurrentYear:   opts.year,
		Nationalities: table,
		Output:        mode,
	}, idparse.WithLogger(log))
	for _, text := range observations {
		p.Process(text)
	}

	rec := p.Record()
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(parseResult{
		Record:         *rec,
		Review:         services.NewRecordReviewer().Review(rec, p),
		FullyConfident: rec.FullyConfident(),
		Observations:   len(observations),
	})
}

func readObservations(stdin io.Reader, args []string, split string) ([]string, error) {
	if len(args) == 0 {
		args = []string{"-"}
	}

	var out []string
	for _, name := range args {
		var data []byte
		var err error
		if name == "-" {
			data, err = io.ReadAll(stdin)
		} else {
			data, err = os.ReadFile(name)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", name)
		}
		out = append(out, splitObservations(string(data), split)...)
	}
	return out, nil
}

func splitObservations(text, sep string) []string {
	if sep == "" {
		return []string{text}
	}
	var out []string
	var cur []string
	flush := func() {
		if obs := strings.Join(cur, "\n"); strings.TrimSpace(obs) != "" {
			out = append(out, obs)
		}
		cur = cur[:0]
	}
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimRight(line, "\r") == sep {
			flush()
			continue
		}
		cur = append(cur, line)
	}
	flush()
	return out
}
