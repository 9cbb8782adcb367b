package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gas-market/core/reconcile"
	"gas-market/core/validation"
	"gas-market/feature/gasmarket"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	importStrategy string
	importDryRun   bool
	importYes      bool
	importOutput   string
)

// importCmd loads a text file from disk the same way the upload endpoint does.
var importCmd = &cobra.Command{
	Use:   "import <file.txt>",
	Short: "Import a text file of gas market records",
	Long: `Parse a text file (delimited rows or a JSON list), plan the writes and
apply them to the database.

The plan is always printed first. Rows with errors reject the whole file.

Examples:
  # Show what would be written
  import precos.txt --dry-run

  # Merge by (DATA, PLANILHA, ABA, PRODUTO) without prompting
  import precos.txt --strategy match_and_merge --yes

  # Machine readable report
  import precos.txt --dry-run --output json`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importStrategy, "strategy", "", "touch_then_append or match_and_merge (default from config)")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Plan only, write nothing")
	importCmd.Flags().BoolVar(&importYes, "yes", false, "Apply without the interactive confirmation")
	importCmd.Flags().StringVarP(&importOutput, "output", "o", FormatText, "Output format: text, json or yaml")
	RootCmd.AddCommand(importCmd)
}

// importReport is the printed result of an import.
type importReport struct {
	File      string                 `json:"file" yaml:"file"`
	Format    string                 `json:"format" yaml:"format"`
	Delimiter string                 `json:"delimiter,omitempty" yaml:"delimiter,omitempty"`
	Strategy  string                 `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	Records   int                    `json:"records" yaml:"records"`
	Plan      *reconcile.PlanSummary `json:"plan,omitempty" yaml:"plan,omitempty"`
	Errors    []validation.Detail    `json:"errors,omitempty" yaml:"errors,omitempty"`
	Applied   bool                   `json:"applied" yaml:"applied"`
	Touched   int64                  `json:"touched" yaml:"touched"`
	Created   int                    `json:"created" yaml:"created"`
	Updated   int                    `json:"updated" yaml:"updated"`
}

// Text renders the report for a terminal.
func (r importReport) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "File:      %s\n", r.File)
	fmt.Fprintf(&b, "Format:    %s", r.Format)
	if r.Delimiter != "" {
		fmt.Fprintf(&b, " (delimiter %q)", r.Delimiter)
	}
	fmt.Fprintf(&b, "\nRecords:   %d\n", r.Records)

	if len(r.Errors) > 0 {
		fmt.Fprintf(&b, "Errors:    %d\n", len(r.Errors))
		for _, e := range r.Errors {
			if e.Row > 0 {
				fmt.Fprintf(&b, "  [%s] row %d: %s\n", e.Code, e.Row, e.Message)
			} else {
				fmt.Fprintf(&b, "  [%s] %s\n", e.Code, e.Message)
			}
		}
		return b.String()
	}

	if r.Plan != nil {
		fmt.Fprintf(&b, "Strategy:  %s\n", r.Strategy)
		fmt.Fprintf(&b, "Groups:    %d\n", r.Plan.Groups)
		fmt.Fprintf(&b, "Planned:   %d touch, %d insert, %d merge\n",
			r.Plan.TouchActions, r.Plan.InsertActions, r.Plan.MergeActions)
	}
	if r.Applied {
		fmt.Fprintf(&b, "Applied:   %d superseded, %d created, %d updated\n", r.Touched, r.Created, r.Updated)
	} else {
		b.WriteString("Applied:   no\n")
	}
	return b.String()
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	out, err := NewOutputFormatter(importOutput, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

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

	name := filepath.Base(path)
	preview, err := svc.Preview(ctx, name, data, importStrategy)
	if err != nil {
		return err
	}

	report := importReport{
		File:      preview.File,
		Format:    string(preview.Format),
		Delimiter: preview.Delimiter,
		Records:   len(preview.Records),
		Errors:    preview.Errors,
	}
	if preview.Plan != nil {
		report.Strategy = string(preview.Plan.Strategy)
		report.Plan = &preview.Plan.Summary
	}

	if !preview.Valid {
		if err := out.Print(report); err != nil {
			return err
		}
		return &ExitError{Code: ExitInvalidInput, Err: fmt.Errorf("%s rejected with %d error(s)", name, len(report.Errors))}
	}

	if importDryRun {
		rt.log.Info("Dry-run mode: no changes were made")
		return out.Print(report)
	}

	if !importYes && !confirmImport(cmd.InOrStdin(), cmd.ErrOrStderr(), report) {
		rt.log.Warn("Import cancelled by user. No changes were made.")
		return out.Print(report)
	}

	res, err := svc.Upload(ctx, name, data, report.Strategy)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	report.Applied = true
	report.Touched = res.Outcome.Touched
	report.Created = res.Outcome.Created
	report.Updated = res.Outcome.Updated
	rt.log.Info("Import applied", zap.String("file", name), zap.Int("processed", res.Outcome.Processed()))
	return out.Print(report)
}

// confirmImport asks for confirmation on the terminal.
func confirmImport(in io.Reader, prompt io.Writer, r importReport) bool {
	fmt.Fprintf(prompt, "\nWrite %d record(s) with %s? Type 'yes' to confirm: ", r.Records, r.Strategy)
	response, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false
	}
	return strings.TrimSpace(response) == "yes"
}
