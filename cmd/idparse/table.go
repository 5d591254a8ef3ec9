package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/facturaIA/identity-ocr-service/internal/reftable"
)

func newTableCmd() *cobra.Command {
	var path string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Print the effective nationality table in match order",
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := reftable.Load(path)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(table)
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			defer enc.Close()
			return enc.Encode(table)
		},
	}
	cmd.Flags().StringVar(&path, "table", "", "nationality table YAML (default: built-in)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of YAML")
	return cmd
}
