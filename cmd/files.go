package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/payplan/internal/cli"
	"github.com/theirongolddev/payplan/internal/pipeline"

	"github.com/spf13/cobra"
)

var filesCmd = &cobra.Command{
	Use:   "files [DIR]",
	Short: "List importable sheets under a directory",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runFiles,
}

func init() {
	rootCmd.AddCommand(filesCmd)
}

func runFiles(_ *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}

	progressFn := func(current, total int) {
		if flagQuiet {
			return
		}
		if current%10 == 0 || current == total {
			fmt.Fprintf(os.Stderr, "\r  Parsing [%d/%d]", current, total)
		}
	}

	result, err := pipeline.LoadDir(dir, cfg.Import.ColumnMap(), progressFn)
	if err != nil {
		return err
	}
	if !flagQuiet && result.TotalFiles > 0 {
		fmt.Fprintln(os.Stderr)
	}
	if result.TotalFiles == 0 {
		fmt.Printf("\n  No .xlsx or .csv files under %s.\n", dir)
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("SHEETS  %s", dir)))
	fmt.Println()

	now := time.Now()
	rows := make([][]string, 0, len(result.Files))
	for _, f := range result.Files {
		rel, err := filepath.Rel(dir, f.File.Path)
		if err != nil {
			rel = f.File.Name
		}
		if f.Err != nil {
			rows = append(rows, []string{cli.Truncate(rel, 40), "-", "-", "-", cli.FormatAge(f.File.ModTime, now)})
			continue
		}
		rows = append(rows, []string{
			cli.Truncate(rel, 40),
			cli.FormatNumber(int64(f.Rows)),
			cli.FormatLiability(f.Liability),
			cli.FormatNumber(f.Amount),
			cli.FormatAge(f.File.ModTime, now),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"File", "Rows", "Liability", "Allocated", "Modified"},
		Rows:    rows,
	}))

	if result.FileErrors > 0 {
		fmt.Println()
		for _, f := range result.Files {
			if f.Err != nil {
				fmt.Println(cli.RenderWarning(fmt.Sprintf("%s: %v", f.File.Name, f.Err)))
			}
		}
	}
	return nil
}
