package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/theirongolddev/payplan/internal/cli"
	"github.com/theirongolddev/payplan/internal/model"
	"github.com/theirongolddev/payplan/internal/pipeline"
	"github.com/theirongolddev/payplan/internal/store"

	"github.com/spf13/cobra"
)

var (
	flagChartBy       string
	flagChartScenario string
	flagChartWidth    int
)

var chartCmd = &cobra.Command{
	Use:   "chart [FILE]",
	Short: "Bar chart of allocated amounts per group",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runChart,
}

func init() {
	chartCmd.Flags().StringVar(&flagChartBy, "by", "", "Column to group by (default: first configured group column)")
	chartCmd.Flags().StringVar(&flagChartScenario, "scenario", "", "Chart a saved scenario instead of a file")
	chartCmd.Flags().IntVar(&flagChartWidth, "width", 40, "Bar width in columns")
	rootCmd.AddCommand(chartCmd)
}

func runChart(_ *cobra.Command, args []string) error {
	var (
		set   model.AllocationSet
		label string
	)
	switch {
	case flagChartScenario != "" && len(args) > 0:
		return errors.New("give a FILE or --scenario, not both")
	case flagChartScenario != "":
		err := withStore(func(ctx context.Context, st store.Store) error {
			sc, err := getScenario(ctx, st, flagChartScenario)
			set, label = sc.Set, sc.Name
			return err
		})
		if err != nil {
			return err
		}
	case len(args) == 1:
		var err error
		if set, err = loadSet(args[0]); err != nil {
			return err
		}
		label = filepath.Base(args[0])
	default:
		return errors.New("give a FILE or --scenario NAME")
	}

	key := flagChartBy
	if key == "" {
		key = cfg.Import.DefaultGroup()
	}
	if !set.HasColumn(key) {
		return fmt.Errorf("unknown column %q (have %v)", key, set.Columns)
	}

	groups := pipeline.SortGroups(pipeline.GroupTotals(set, nil, key))
	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("%s BY %s", label, key)))
	fmt.Println()
	fmt.Print(renderGroupChart(groups, flagChartWidth))
	return nil
}

func renderGroupChart(groups []model.GroupStats, width int) string {
	var maxAmount int64
	labelW := 0
	for _, g := range groups {
		maxAmount = max(maxAmount, g.Amount)
		labelW = max(labelW, len([]rune(groupLabel(g.Value))))
	}
	labelW = min(labelW, 24)

	var b strings.Builder
	for _, g := range groups {
		label := fmt.Sprintf("%-*s", labelW, cli.Truncate(groupLabel(g.Value), labelW))
		b.WriteString(cli.RenderHorizontalBar(label, float64(g.Amount), float64(maxAmount), width))
		b.WriteString(" " + cli.FormatNumber(g.Amount) + "\n")
	}
	return b.String()
}

func groupLabel(v string) string {
	if v == "" {
		return "(blank)"
	}
	return v
}
