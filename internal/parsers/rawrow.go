// Package parsers loads ledger export files into raw rows for the
// engine. The spreadsheet-to-rows ingestion proper is an upstream
// collaborator; this package is the thin CSV adapter the CLI uses to
// materialize its output, plus the fail-fast checks of the input
// contract (header present, required columns mapped, at least one data
// row).
package parsers

import (
	"encoding/csv"
	"io"
	"os"

	"mca-ledger-engine/internal/models"
	"mca-ledger-engine/pkg/errors"
	"mca-ledger-engine/pkg/logger"
)

// LoaderConfig configures the raw-row loader.
type LoaderConfig struct {
	Delimiter rune              `json:"delimiter"`
	HasHeader bool              `json:"has_header"`
	Columns   *models.ColumnMap `json:"columns"`
}

// DefaultLoaderConfig returns the standard export layout: comma
// delimited with a header row and the current column map.
func DefaultLoaderConfig() *LoaderConfig {
	return &LoaderConfig{
		Delimiter: ',',
		HasHeader: true,
		Columns:   models.DefaultColumnMap(),
	}
}

// Validate checks the loader configuration.
func (c *LoaderConfig) Validate() error {
	if c.Columns == nil {
		return errors.ConfigurationError(errors.CodeMissingConfig, "columns", nil, nil)
	}
	if err := c.Columns.Validate(); err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "columns", c.Columns.Version, err)
	}
	return nil
}

// RawRowLoader reads export files into ordered raw rows.
type RawRowLoader struct {
	config *LoaderConfig
	logger logger.Logger
}

// NewRawRowLoader creates a loader with the given configuration.
func NewRawRowLoader(config *LoaderConfig) (*RawRowLoader, error) {
	if config == nil {
		config = DefaultLoaderConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &RawRowLoader{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("rawrow_loader"),
	}, nil
}

// LoadFile reads a CSV export from disk. Structural problems (missing
// file, no header, zero data rows) are fatal batch errors.
func (l *RawRowLoader) LoadFile(path string) ([]models.RawRow, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileError(errors.CodeFileNotFound, path, err)
		}
		return nil, errors.FileError(errors.CodeFileUnreadable, path, err)
	}
	defer file.Close()

	return l.Load(file, path)
}

// Load reads rows from r. The name is used in error messages only.
func (l *RawRowLoader) Load(r io.Reader, name string) ([]models.RawRow, error) {
	reader := csv.NewReader(r)
	reader.Comma = l.config.Delimiter
	reader.FieldsPerRecord = -1

	lines, err := reader.ReadAll()
	if err != nil {
		return nil, errors.ParseError(errors.CodeInvalidFormat, name, err.Error(), err)
	}

	if len(lines) == 0 {
		return nil, errors.ParseError(errors.CodeMissingHeader, name, "", nil)
	}

	start := 0
	if l.config.HasHeader {
		header := toRawRow(lines[0])
		if err := l.config.Columns.ValidateHeader(header); err != nil {
			return nil, errors.ParseError(errors.CodeMissingColumn, name, err.Error(), err)
		}
		start = 1
	}

	if len(lines) <= start {
		return nil, errors.ParseError(errors.CodeEmptyBatch, name, "", nil)
	}

	rows := make([]models.RawRow, 0, len(lines)-start)
	for _, line := range lines[start:] {
		rows = append(rows, toRawRow(line))
	}

	l.logger.WithFields(logger.Fields{
		"file": name,
		"rows": len(rows),
	}).Debug("loaded raw rows")

	return rows, nil
}

func toRawRow(fields []string) models.RawRow {
	row := make(models.RawRow, len(fields))
	for i, f := range fields {
		row[i] = models.ParseCell(f)
	}
	return row
}
