package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Amerigo2020/vestigas-co2-scribe/internal/config"
	"github.com/Amerigo2020/vestigas-co2-scribe/internal/embedding"
	"github.com/Amerigo2020/vestigas-co2-scribe/internal/pipeline"
)

const defaultReportName = "co2e_report.xlsx"

type runFlags struct {
	catalog    string
	deliveries []string
	out        string
	module     string
	mock       bool
	noStore    bool
	top        int
}

func newRunCmd(a *app) *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Match deliveries to the catalog and write a CO2e report",
		Example: `  co2scribe run --catalog OBD_2024_I.csv --deliveries weight.xlsx,quantity.xlsx
  co2scribe run --catalog OBD.csv --deliveries site.csv --out out/site.csv --mock --no-store`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd, f)
		},
	}

	cmd.Flags().StringVar(&f.catalog, "catalog", "", "catalog export (csv, xlsx or xls)")
	cmd.Flags().StringSliceVar(&f.deliveries, "deliveries", nil, "delivery files, comma separated")
	cmd.Flags().StringVar(&f.out, "out", "", "report path, .xlsx or .csv (default $OUTPUT_DIR/"+defaultReportName+")")
	cmd.Flags().StringVar(&f.module, "module", "", "catalog life-cycle module to keep (default $CATALOG_MODULE)")
	cmd.Flags().BoolVar(&f.mock, "mock", false, "use deterministic mock embeddings")
	cmd.Flags().BoolVar(&f.noStore, "no-store", false, "do not persist the run")
	cmd.Flags().IntVar(&f.top, "top", 0, "top emitters in the summary (default $REPORT_TOP_N)")
	_ = cmd.MarkFlagRequired("catalog")
	_ = cmd.MarkFlagRequired("deliveries")

	return cmd
}

func (a *app) run(cmd *cobra.Command, f runFlags) error {
	cfg := a.cfg
	if f.mock {
		cfg.EmbeddingProvider = config.ProviderMock
	}
	if f.top > 0 {
		cfg.ReportTopN = f.top
	}

	provider, err := embedding.NewProvider(cfg, a.logger)
	if err != nil {
		return err
	}
	svc := pipeline.NewProcessingService(cfg, provider, a.logger)
	if !f.noStore {
		db, err := a.openDB()
		if err != nil {
			return err
		}
		defer db.Close()
		svc.WithStore(db)
	}

	out := f.out
	if out == "" {
		out = filepath.Join(cfg.OutputDir, defaultReportName)
	}
	res, err := svc.RunFiles(cmd.Context(), pipeline.FileRun{
		CatalogPath:   f.catalog,
		DeliveryPaths: f.deliveries,
		Module:        f.module,
		OutputPath:    out,
	})
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "run done id=%d rows=%d output=%s\n\n", res.Run.ID, len(res.Rows), out)
	return printSummary(w, res.Summary)
}
