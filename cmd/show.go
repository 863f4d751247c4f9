package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/theirongolddev/payplan/internal/cli"
	"github.com/theirongolddev/payplan/internal/model"
	"github.com/theirongolddev/payplan/internal/pipeline"

	"github.com/spf13/cobra"
)

var (
	flagGroupBy string
	flagSort    string
	flagDesc    bool
	flagFilter  string
)

var showCmd = &cobra.Command{
	Use:   "show FILE",
	Short: "Print a sheet's obligations and totals",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().StringVarP(&flagGroupBy, "group-by", "g", "", "Group rows by this column")
	showCmd.Flags().StringVarP(&flagSort, "sort", "s", "", "Sort by column, id, liability or amount")
	showCmd.Flags().BoolVar(&flagDesc, "desc", false, "Sort descending")
	showCmd.Flags().StringVarP(&flagFilter, "filter", "f", "", "Only rows whose id or attributes contain this text")
	rootCmd.AddCommand(showCmd)
}

func runShow(_ *cobra.Command, args []string) error {
	set, err := loadSet(args[0])
	if err != nil {
		return err
	}
	if set.Len() == 0 {
		fmt.Println("\n  No rows found.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("OBLIGATIONS  %s", filepath.Base(args[0]))))
	fmt.Println()

	order, err := displayOrder(set, flagGroupBy, flagSort, flagDesc)
	if err != nil {
		return err
	}
	if flagFilter != "" {
		order = keepMatching(order, pipeline.FilterByText(set, flagFilter))
	}
	fmt.Print(renderRows(set, nil, order, flagGroupBy))

	stats := pipeline.Summarize(set, nil, 0)
	fmt.Printf("\n  %s rows, liability %s, allocated %s\n",
		cli.FormatNumber(int64(stats.Rows)),
		cli.FormatLiability(stats.TotalLiability),
		cli.FormatNumber(stats.DistributedTotal),
	)
	if flagGroupBy != "" {
		fmt.Println()
		fmt.Print(renderGroups(set, nil, flagGroupBy))
	}
	return nil
}

// displayOrder validates the group and sort keys and returns row indexes
// in display order.
func displayOrder(set model.AllocationSet, groupBy, sortKey string, desc bool) ([]int, error) {
	if groupBy != "" && !set.HasColumn(groupBy) {
		return nil, fmt.Errorf("unknown column %q (have %v)", groupBy, set.Columns)
	}
	if sortKey != "" {
		valid := false
		for _, k := range pipeline.SortKeys(set) {
			if k == sortKey {
				valid = true
				break
			}
		}
		if !valid {
			return nil, fmt.Errorf("unknown sort key %q (have %v)", sortKey, pipeline.SortKeys(set))
		}
	}
	return pipeline.OrderByGroup(set, groupBy, pipeline.SortView(set, sortKey, desc)), nil
}

func keepMatching(order, matches []int) []int {
	keep := make(map[int]bool, len(matches))
	for _, i := range matches {
		keep[i] = true
	}
	out := order[:0:0]
	for _, i := range order {
		if keep[i] {
			out = append(out, i)
		}
	}
	return out
}

// renderRows prints the rows at order. Locked rows are marked with *.
func renderRows(set model.AllocationSet, locks model.LockSet, order []int, groupBy string) string {
	headers := []string{"ID"}
	headers = append(headers, set.Columns...)
	headers = append(headers, "Liability", "Amount")

	rows := make([][]string, 0, len(order))
	for _, i := range order {
		o := set.Obligations[i]
		id := o.ID
		if locks.Has(o.ID) {
			id += " *"
		}
		row := []string{cli.Truncate(id, 22)}
		for _, c := range set.Columns {
			row = append(row, cli.Truncate(o.Attr(c), 24))
		}
		row = append(row, cli.FormatLiability(o.RemainingLiability), cli.FormatNumber(o.AllocatedAmount))
		rows = append(rows, row)
	}

	title := ""
	if groupBy != "" {
		title = "Grouped by " + groupBy
	}
	return cli.RenderTable(cli.Table{
		Title:    title,
		Headers:  headers,
		Rows:     rows,
		LeftCols: 1 + len(set.Columns),
	})
}

func renderGroups(set model.AllocationSet, locks model.LockSet, key string) string {
	groups := pipeline.GroupTotals(set, locks, key)
	rows := make([][]string, 0, len(groups))
	for _, g := range groups {
		value := g.Value
		if value == "" {
			value = "(blank)"
		}
		rows = append(rows, []string{
			cli.Truncate(value, 28),
			cli.FormatNumber(int64(len(g.Members))),
			cli.FormatNumber(int64(g.LockedCount)),
			cli.FormatLiability(g.Liability),
			cli.FormatNumber(g.Amount),
		})
	}
	return cli.RenderTable(cli.Table{
		Title:   "Totals by " + key,
		Headers: []string{key, "Rows", "Locked", "Liability", "Amount"},
		Rows:    rows,
	})
}
