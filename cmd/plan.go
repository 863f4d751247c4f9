package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/theirongolddev/payplan/internal/cli"
	"github.com/theirongolddev/payplan/internal/pipeline"
	"github.com/theirongolddev/payplan/internal/session"

	"github.com/spf13/cobra"
)

var (
	flagBudget       int64
	flagInitial      bool
	flagRedistribute bool
	flagLocks        []string
	flagCells        []string
	flagGroups       []string
	flagSaveAs       string
	flagExport       string
)

var planCmd = &cobra.Command{
	Use:   "plan FILE",
	Short: "Distribute a budget over a sheet and print the result",
	Long: "Runs the requested actions through one session in a fixed order:\n" +
		"budget, initial distribution, locks, cell edits, group edits, redistribution.",
	Args: cobra.ExactArgs(1),
	RunE: runPlan,
}

func init() {
	planCmd.Flags().Int64VarP(&flagBudget, "budget", "b", -1, "Budget to distribute (default: config default_budget)")
	planCmd.Flags().BoolVar(&flagInitial, "initial", false, "Split the budget evenly over all rows")
	planCmd.Flags().BoolVarP(&flagRedistribute, "redistribute", "r", false, "Split the unlocked budget by remaining liability")
	planCmd.Flags().StringArrayVar(&flagLocks, "lock", nil, "Lock a row by id (repeatable)")
	planCmd.Flags().StringArrayVar(&flagCells, "set", nil, "Set a row's amount, id=amount (repeatable)")
	planCmd.Flags().StringArrayVar(&flagGroups, "group", nil, "Set a group's total, column=value=total (repeatable)")
	planCmd.Flags().StringVar(&flagSaveAs, "save", "", "Save the result as a named scenario")
	planCmd.Flags().StringVarP(&flagExport, "export", "o", "", "Write the result to an .xlsx or .csv file")
	planCmd.Flags().StringVarP(&flagGroupBy, "group-by", "g", "", "Group rows by this column")
	rootCmd.AddCommand(planCmd)
}

type cellEdit struct {
	id     string
	amount int64
}

type groupEdit struct {
	key, value string
	total      int64
}

func parseCellEdit(s string) (cellEdit, error) {
	i := strings.LastIndex(s, "=")
	if i <= 0 {
		return cellEdit{}, fmt.Errorf("--set %q: want id=amount", s)
	}
	amt, err := parseAmount(s[i+1:])
	if err != nil {
		return cellEdit{}, fmt.Errorf("--set %q: %w", s, err)
	}
	return cellEdit{id: s[:i], amount: amt}, nil
}

func parseGroupEdit(s string) (groupEdit, error) {
	first := strings.Index(s, "=")
	last := strings.LastIndex(s, "=")
	if first <= 0 || first == last {
		return groupEdit{}, fmt.Errorf("--group %q: want column=value=total", s)
	}
	total, err := parseAmount(s[last+1:])
	if err != nil {
		return groupEdit{}, fmt.Errorf("--group %q: %w", s, err)
	}
	return groupEdit{key: s[:first], value: s[first+1 : last], total: total}, nil
}

// parseAmount accepts whole numbers with optional thousands separators.
func parseAmount(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.ReplaceAll(strings.TrimSpace(s), ",", ""), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a whole number", s)
	}
	return n, nil
}

func runPlan(_ *cobra.Command, args []string) error {
	cells := make([]cellEdit, 0, len(flagCells))
	for _, s := range flagCells {
		c, err := parseCellEdit(s)
		if err != nil {
			return err
		}
		cells = append(cells, c)
	}
	groups := make([]groupEdit, 0, len(flagGroups))
	for _, s := range flagGroups {
		g, err := parseGroupEdit(s)
		if err != nil {
			return err
		}
		groups = append(groups, g)
	}

	set, err := loadSet(args[0])
	if err != nil {
		return err
	}

	sess := session.New(cfg.General.DefaultBudget)
	sess.Load(set, filepath.Base(args[0]))

	// Validation failures land in the session warning and the run goes on,
	// the same way an interactive edit would.
	var warnings []string
	note := func(err error) {
		if err != nil {
			warnings = append(warnings, err.Error())
			slog.Debug("plan action rejected", "error", err)
		}
	}

	if flagBudget >= 0 {
		note(sess.SetBudget(flagBudget))
	}
	if flagInitial {
		sess.RequestInitialDistribution()
	}
	for _, id := range flagLocks {
		if sess.IsLocked(id) {
			continue
		}
		_, err := sess.ToggleLock(id)
		note(err)
	}
	for _, c := range cells {
		note(sess.EditCell(c.id, c.amount))
	}
	for _, g := range groups {
		note(sess.EditGroupTotal(g.key, g.value, g.total))
	}
	if flagRedistribute {
		sess.RequestRedistribution()
	}

	st := sess.Snapshot()
	order, err := displayOrder(st.Set, flagGroupBy, "", false)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("PLAN  %s", st.Label)))
	fmt.Println()
	fmt.Print(renderRows(st.Set, st.Locks, order, flagGroupBy))
	fmt.Println()

	stats := pipeline.Summarize(st.Set, st.Locks, st.Budget)
	fmt.Printf("  Budget       %s\n", cli.FormatNumber(stats.Budget))
	fmt.Printf("  Distributed  %s\n", cli.FormatNumber(stats.DistributedTotal))
	fmt.Printf("  Remaining    %s\n", cli.FormatDelta(stats.Remaining))
	fmt.Printf("  Locked       %d rows, %s\n", stats.LockedRows, cli.FormatNumber(stats.LockedAmount))
	fmt.Printf("  %s\n", cli.RenderBudgetBar(stats.DistributedTotal, stats.Budget, 30))
	if line := cli.RenderOverBudget(st.Total, st.Budget); line != "" {
		fmt.Println(line)
	}
	for _, w := range warnings {
		fmt.Println(cli.RenderWarning(w))
	}

	if flagExport != "" {
		if err := exportSet(flagExport, st.Label, st.Set); err != nil {
			return err
		}
	}
	if flagSaveAs != "" {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		sc, err := db.Save(context.Background(), flagSaveAs, st.Set)
		if err != nil {
			return fmt.Errorf("saving scenario: %w", err)
		}
		fmt.Printf("\n  Saved scenario %q (%d rows)\n", sc.Name, sc.Rows)
	}
	return nil
}
