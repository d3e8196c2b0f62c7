package cli

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Amerigo2020/vestigas-co2-scribe/internal"
	"github.com/Amerigo2020/vestigas-co2-scribe/internal/pipeline"
)

var titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))

func newSummaryCmd(a *app) *cobra.Command {
	var (
		runID  int64
		report string
		top    int
	)

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print KPIs of a stored run or a report file",
		Example: `  co2scribe summary --run-id 3
  co2scribe summary --report out/report.csv --top 10`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (runID > 0) == (report != "") {
				return errors.New("exactly one of --run-id or --report is required")
			}
			if top <= 0 {
				top = a.cfg.ReportTopN
			}

			var rows []internal.ReportRow
			if report != "" {
				var err error
				if rows, err = pipeline.LoadReport(report); err != nil {
					return err
				}
			} else {
				db, err := a.openDB()
				if err != nil {
					return err
				}
				defer db.Close()
				if rows, err = db.GetRunRows(runID); err != nil {
					return err
				}
			}
			return printSummary(cmd.OutOrStdout(), pipeline.Summarize(rows, top))
		},
	}

	cmd.Flags().Int64Var(&runID, "run-id", 0, "stored run id")
	cmd.Flags().StringVar(&report, "report", "", "report file written by run or export")
	cmd.Flags().IntVar(&top, "top", 0, "top emitters to list (default $REPORT_TOP_N)")
	cmd.MarkFlagsMutuallyExclusive("run-id", "report")
	return cmd
}

func printSummary(out io.Writer, s internal.RunSummary) error {
	fmt.Fprintln(out, titleStyle.Render("CO2e summary"))

	w := tabwriter.NewWriter(out, 0, 0, tabPadding, ' ', 0)
	fmt.Fprintf(w, "Items\t%d\n", s.TotalItems)
	fmt.Fprintf(w, "Successful\t%d (%.1f %%)\n", s.SuccessItems, s.SuccessRatePct)
	fmt.Fprintf(w, "Failed\t%d\n", s.FailedItems)
	fmt.Fprintf(w, "Converted\t%d\n", s.ConvertedItems)
	fmt.Fprintf(w, "No match\t%d\n", s.NoMatchItems)
	fmt.Fprintf(w, "Mean similarity\t%.4f\n", s.MeanSimilarity)
	fmt.Fprintf(w, "Material CO2e (A1-A3)\t%.4f kg\n", s.MaterialCO2e)
	fmt.Fprintf(w, "Transport CO2e (A4)\t%.4f kg\n", s.TransportCO2e)
	fmt.Fprintf(w, "Total CO2e\t%.4f kg\n", s.TotalCO2e)
	fmt.Fprintf(w, "Material share\t%.1f %%\n", s.MaterialSharePc)
	fmt.Fprintf(w, "Intensity\t%.4f kg CO2e per unit\n", s.Intensity)
	if err := w.Flush(); err != nil {
		return err
	}

	if len(s.StatusBreakdown) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, titleStyle.Render("Status"))
		kinds := make([]string, 0, len(s.StatusBreakdown))
		for k := range s.StatusBreakdown {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		w = tabwriter.NewWriter(out, 0, 0, tabPadding, ' ', 0)
		for _, k := range kinds {
			fmt.Fprintf(w, "%s\t%d\n", k, s.StatusBreakdown[k])
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if len(s.Suppliers) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, titleStyle.Render("Suppliers"))
		w = tabwriter.NewWriter(out, 0, 0, tabPadding, ' ', 0)
		fmt.Fprintln(w, "Supplier\tItems\tQuantity\tTotal CO2e kg")
		for _, sup := range s.Suppliers {
			fmt.Fprintf(w, "%s\t%d\t%.2f\t%.4f\n", sup.Supplier, sup.Items, sup.Quantity, sup.TotalCO2e)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if len(s.TopEmitters) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("Top %d emitters", len(s.TopEmitters))))
		w = tabwriter.NewWriter(out, 0, 0, tabPadding, ' ', 0)
		fmt.Fprintln(w, "Line\tArtikel\tMaterial\tTotal CO2e kg")
		for _, r := range s.TopEmitters {
			fmt.Fprintf(w, "%d\t%s\t%s\t%.4f\n", r.LineNo, r.Description, r.MatchedMaterial, r.TotalCO2e)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return nil
}
