package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gas-market/feature/gasmarket"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	exportMonth int
	exportYear  int
	exportOut   string
)

// exportCmd writes a month of records to an xlsx file.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a month of records to Excel",
	Long: `Write the records whose DATA falls in the given month to an xlsx file.

Examples:
  # Current month into the working directory
  export

  # September 2025 into a custom path
  export --month 9 --year 2025 --out /tmp/setembro.xlsx`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	now := time.Now()
	exportCmd.Flags().IntVar(&exportMonth, "month", int(now.Month()), "Month (1-12)")
	exportCmd.Flags().IntVar(&exportYear, "year", now.Year(), "Year")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Output file (default mercado_gas_<month>_<year>.xlsx)")
	RootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	rt, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	opts, err := gasmarket.OptionsFromConfig(rt.cfg, rt.client)
	if err != nil {
		return err
	}
	svc := gasmarket.NewService(rt.db, rt.log, opts)

	data, name, err := svc.Export(ctx, exportMonth, exportYear)
	if err != nil {
		return err
	}

	path := exportOut
	if path == "" {
		path = name
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	abs, _ := filepath.Abs(path)
	rt.log.Info("Export written", zap.String("path", abs), zap.Int("bytes", len(data)))
	return nil
}
