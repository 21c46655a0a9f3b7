package backend

import (
	"context"
	"fmt"

	"mindful/internal/log"
	"mindful/internal/sheets"
	gsheet "mindful/internal/sheets/google"
	"mindful/internal/sheets/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new exporter factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateExporter implements Factory.CreateExporter
func (f *DefaultFactory) CreateExporter(ctx context.Context, config Config) (*ExporterResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case NoneExporter:
		f.logger.Info("Spend export disabled")
		return &ExporterResult{Exporter: noopExporter{}}, nil
	case MemoryExporter:
		f.logger.Info("Initialized memory spend exporter")
		return &ExporterResult{Exporter: memory.New()}, nil
	case SheetsExporter:
		return f.createSheetsExporter(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported exporter type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSheetsExporter(ctx context.Context, config Config) (*ExporterResult, error) {
	cli, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   config.GoogleSpreadsheetID,
		SheetName:       config.GoogleSheetName,
		CredentialsJSON: config.GoogleServiceAccountJSON,
		CredentialsFile: config.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets spend exporter", "sheet", config.GoogleSheetName)

	return &ExporterResult{Exporter: cli}, nil
}

// noopExporter accepts every row without writing it anywhere.
type noopExporter struct{}

func (noopExporter) ExportSpend(_ context.Context, row sheets.SpendRow) (string, error) {
	return "", row.Validate()
}
