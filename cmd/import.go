package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadflow-cli/internal/leads"
)

var importOut string

var importCmd = &cobra.Command{
	Use:   "import <leads.xlsx>",
	Short: "Convert an XLSX lead sheet to the canonical leads CSV",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		batch, err := leads.ReadXLSX(args[0])
		if err != nil {
			return err
		}

		out := importOut
		if out == "" {
			out = cfg.Paths.Leads
		}
		if err := leads.WriteCSV(out, batch); err != nil {
			return err
		}

		zap.L().Info("leads imported",
			zap.String("from", args[0]),
			zap.String("to", out),
			zap.Int("leads", len(batch)),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importOut, "out", "", "output CSV path (default from config)")
	rootCmd.AddCommand(importCmd)
}
