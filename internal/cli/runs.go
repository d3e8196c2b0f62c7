package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Amerigo2020/vestigas-co2-scribe/internal/pipeline"
)

const tabPadding = 2

func newRunsCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored runs, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			runs, err := db.ListRuns(limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no runs stored")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, tabPadding, ' ', 0)
			fmt.Fprintln(w, "ID\tCreated\tModule\tItems\tSuccess\tTotal CO2e kg\tTrace")
			fmt.Fprintln(w, "--\t-------\t------\t-----\t-------\t-------------\t-----")
			for _, r := range runs {
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%.4f\t%s\n",
					r.ID,
					r.CreatedAt.Local().Format(time.DateTime),
					r.Module,
					r.Summary.TotalItems,
					r.Summary.SuccessItems,
					r.Summary.TotalCO2e,
					r.TraceID,
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "max runs to list")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var (
		runID int64
		out   string
	)

	cmd := &cobra.Command{
		Use:     "export",
		Short:   "Write the report of a stored run",
		Example: `  co2scribe export --run-id 3 --out out/run3.xlsx`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if runID <= 0 {
				return errors.New("--run-id must be > 0")
			}
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			rows, err := db.GetRunRows(runID)
			if err != nil {
				return err
			}
			if err := pipeline.ExportReport(rows, out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d rows to %s\n", len(rows), out)
			return nil
		},
	}

	cmd.Flags().Int64Var(&runID, "run-id", 0, "stored run id")
	cmd.Flags().StringVar(&out, "out", "", "output path, .xlsx or .csv")
	_ = cmd.MarkFlagRequired("run-id")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}
