package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/theirongolddev/payplan/internal/cli"
	"github.com/theirongolddev/payplan/internal/model"
	"github.com/theirongolddev/payplan/internal/pipeline"
	"github.com/theirongolddev/payplan/internal/source"
	"github.com/theirongolddev/payplan/internal/store"

	"github.com/spf13/cobra"
)

var scenariosCmd = &cobra.Command{
	Use:     "scenarios",
	Aliases: []string{"sc"},
	Short:   "Manage saved scenarios",
	RunE:    runScenariosList,
}

var scenariosListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved scenarios, newest first",
	Args:  cobra.NoArgs,
	RunE:  runScenariosList,
}

var scenariosShowCmd = &cobra.Command{
	Use:   "show NAME",
	Short: "Print a saved scenario",
	Args:  cobra.ExactArgs(1),
	RunE:  runScenariosShow,
}

var scenariosDeleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Delete a saved scenario",
	Args:  cobra.ExactArgs(1),
	RunE:  runScenariosDelete,
}

var scenariosExportCmd = &cobra.Command{
	Use:   "export NAME PATH",
	Short: "Write a saved scenario to an .xlsx or .csv file",
	Args:  cobra.ExactArgs(2),
	RunE:  runScenariosExport,
}

func init() {
	scenariosShowCmd.Flags().StringVarP(&flagGroupBy, "group-by", "g", "", "Group rows by this column")
	scenariosCmd.AddCommand(scenariosListCmd, scenariosShowCmd, scenariosDeleteCmd, scenariosExportCmd)
	rootCmd.AddCommand(scenariosCmd)
}

// withStore opens the scenario store for the duration of fn.
func withStore(fn func(ctx context.Context, st store.Store) error) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return fn(ctx, db)
}

func getScenario(ctx context.Context, st store.Store, name string) (store.Scenario, error) {
	sc, err := st.Get(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return sc, fmt.Errorf("no scenario named %q", name)
	}
	return sc, err
}

func runScenariosList(_ *cobra.Command, _ []string) error {
	return withStore(func(ctx context.Context, st store.Store) error {
		list, err := st.List(ctx)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("\n  No saved scenarios.")
			return nil
		}

		fmt.Println()
		fmt.Println(cli.RenderTitle("SCENARIOS"))
		fmt.Println()

		now := time.Now()
		rows := make([][]string, 0, len(list))
		for _, sc := range list {
			rows = append(rows, []string{
				cli.Truncate(sc.Name, 32),
				cli.FormatNumber(int64(sc.Rows)),
				cli.FormatNumber(sc.Total),
				cli.FormatAge(sc.CreatedAt, now),
			})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Headers: []string{"Name", "Rows", "Total", "Saved"},
			Rows:    rows,
		}))
		return nil
	})
}

func runScenariosShow(_ *cobra.Command, args []string) error {
	return withStore(func(ctx context.Context, st store.Store) error {
		sc, err := getScenario(ctx, st, args[0])
		if err != nil {
			return err
		}
		order, err := displayOrder(sc.Set, flagGroupBy, "", false)
		if err != nil {
			return err
		}

		fmt.Println()
		fmt.Println(cli.RenderTitle(fmt.Sprintf("SCENARIO  %s", sc.Name)))
		fmt.Println()
		fmt.Print(renderRows(sc.Set, nil, order, flagGroupBy))

		stats := pipeline.Summarize(sc.Set, nil, 0)
		fmt.Printf("\n  %s rows, liability %s, allocated %s\n",
			cli.FormatNumber(int64(stats.Rows)),
			cli.FormatLiability(stats.TotalLiability),
			cli.FormatNumber(stats.DistributedTotal),
		)
		fmt.Println(cli.Muted("  Saved " + sc.CreatedAt.Local().Format("2006-01-02 15:04")))
		return nil
	})
}

func runScenariosDelete(_ *cobra.Command, args []string) error {
	return withStore(func(ctx context.Context, st store.Store) error {
		if err := st.Delete(ctx, args[0]); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("no scenario named %q", args[0])
			}
			return err
		}
		fmt.Printf("  Deleted scenario %q\n", args[0])
		return nil
	})
}

func runScenariosExport(_ *cobra.Command, args []string) error {
	return withStore(func(ctx context.Context, st store.Store) error {
		sc, err := getScenario(ctx, st, args[0])
		if err != nil {
			return err
		}
		return exportSet(args[1], sc.Name, sc.Set)
	})
}

func exportSet(path, label string, set model.AllocationSet) error {
	if err := source.Export(path, label, set, cfg.Import.ColumnMap()); err != nil {
		return fmt.Errorf("exporting %s: %w", path, err)
	}
	fmt.Printf("  Wrote %d rows to %s\n", set.Len(), path)
	return nil
}
