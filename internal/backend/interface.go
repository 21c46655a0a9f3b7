package backend

import (
	"context"

	"mindful/internal/sheets"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// ExporterResult contains the exporter instance and optional cleanup function
type ExporterResult struct {
	Exporter sheets.SpendExporter
	Cleanup  CleanupFunc
}

// Factory creates spend exporters based on configuration
type Factory interface {
	CreateExporter(ctx context.Context, config Config) (*ExporterResult, error)
}

// Config holds configuration for exporter creation
type Config struct {
	Type ExporterType

	// Google Sheets specific
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string
}

// ExporterType names where recorded spends are exported to.
type ExporterType string

const (
	NoneExporter   ExporterType = "none"
	MemoryExporter ExporterType = "memory"
	SheetsExporter ExporterType = "sheets"
)

// String implements fmt.Stringer
func (t ExporterType) String() string {
	return string(t)
}

// IsValid returns true if the exporter type is valid
func (t ExporterType) IsValid() bool {
	switch t {
	case NoneExporter, MemoryExporter, SheetsExporter:
		return true
	default:
		return false
	}
}
