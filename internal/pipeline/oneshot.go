package pipeline

import (
	"context"
	"fmt"

	"github.com/Amerigo2020/vestigas-co2-scribe/internal/catalog"
)

// FileRun names the inputs and output of a one-shot run from disk.
type FileRun struct {
	CatalogPath   string
	DeliveryPaths []string
	Module        string
	OutputPath    string
}

// RunFiles loads the catalog and deliveries, runs the pipeline and writes the
// report when OutputPath is set. Unreadable inputs fail before any matching.
func (s *ProcessingService) RunFiles(ctx context.Context, in FileRun) (RunResult, error) {
	module := in.Module
	if module == "" {
		module = s.cfg.CatalogModule
	}
	entries, err := catalog.LoadFile(in.CatalogPath, module, s.logger)
	if err != nil {
		return RunResult{}, err
	}
	deliveries, err := LoadDeliveries(in.DeliveryPaths...)
	if err != nil {
		return RunResult{}, err
	}
	s.logger.Info().Strs("files", in.DeliveryPaths).Int("records", len(deliveries)).Msg("deliveries loaded")

	res, err := s.Run(ctx, RunInput{Catalog: entries, Deliveries: deliveries, Module: module})
	if err != nil {
		return RunResult{}, err
	}
	if in.OutputPath != "" {
		if err := ExportReport(res.Rows, in.OutputPath); err != nil {
			return res, fmt.Errorf("export report: %w", err)
		}
		s.logger.Info().Str("path", in.OutputPath).Msg("report written")
	}
	return res, nil
}
