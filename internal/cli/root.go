package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Amerigo2020/vestigas-co2-scribe/internal/config"
	"github.com/Amerigo2020/vestigas-co2-scribe/internal/storage"
)

// app carries what PersistentPreRunE resolved to the subcommands.
type app struct {
	configPath string
	debug      bool

	cfg    config.Config
	logger zerolog.Logger
}

// NewRootCmd builds the co2scribe command tree.
func NewRootCmd(version string) *cobra.Command {
	a := &app{logger: zerolog.Nop()}

	cmd := &cobra.Command{
		Use:           "co2scribe",
		Short:         "Embodied-carbon estimates for construction deliveries",
		Long:          "co2scribe matches delivery note lines to an Ökobaudat catalog export and reports A1-A3 and A4 CO2e per line.",
		Version:       version,
		Example:       rootExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return a.init()
		},
	}

	cmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")
	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML config file (default $CO2SCRIBE_CONFIG)")

	cmd.AddCommand(
		newRunCmd(a),
		newRunsCmd(a),
		newExportCmd(a),
		newSummaryCmd(a),
		newServeCmd(a),
	)
	return cmd
}

const rootExample = `  # Match two delivery exports against the catalog and write an xlsx report
  co2scribe run --catalog OBD_2024_I.csv --deliveries weight.xlsx,quantity.xlsx --out out/report.xlsx

  # List stored runs and export one as CSV
  co2scribe runs
  co2scribe export --run-id 3 --out out/run3.csv

  # KPIs of a report file
  co2scribe summary --report out/report.xlsx --top 10

  # HTTP API
  co2scribe serve --addr 127.0.0.1:8082`

func (a *app) init() error {
	var (
		cfg config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.LoadFile(a.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if a.debug {
		cfg.LogLevel = "debug"
	}
	a.cfg = cfg
	a.logger = config.SetupLogger(cfg)
	return nil
}

func (a *app) openDB() (*storage.DB, error) {
	db, err := storage.Open(a.cfg.DBPath)
	if err != nil {
		return nil, err
	}
	a.logger.Debug().Str("path", a.cfg.DBPath).Msg("database opened")
	return db, nil
}
