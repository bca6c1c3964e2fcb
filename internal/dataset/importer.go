// Package dataset seeds the chart_records table from the exported sheet.
package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"vizboard/internal/model"
	"vizboard/internal/store"
)

// Importer loads the CSV export into the chart store. The import runs once:
// a non-empty table is left alone so restarts do not duplicate the dataset.
type Importer struct {
	chartStore *store.ChartStore
	source     Source
	logger     *slog.Logger
}

func NewImporter(cs *store.ChartStore, src Source, logger *slog.Logger) *Importer {
	return &Importer{chartStore: cs, source: src, logger: logger}
}

// Run seeds the dataset if the table is empty. Returns the number of records
// imported (0 when skipped).
func (i *Importer) Run(ctx context.Context) (int, error) {
	count, err := i.chartStore.Count()
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	if count > 0 {
		i.logger.Info("dataset already seeded", "records", count)
		return 0, nil
	}

	runID := uuid.NewString()
	i.logger.Info("importing dataset", "run_id", runID, "source", i.source.Name())

	rc, err := i.source.Open(ctx)
	if err != nil {
		return 0, fmt.Errorf("open dataset source: %w", err)
	}
	defer rc.Close()

	records, err := Parse(rc)
	if err != nil {
		return 0, fmt.Errorf("parse dataset: %w", err)
	}

	if err := i.chartStore.BulkInsert(records); err != nil {
		return 0, fmt.Errorf("insert dataset: %w", err)
	}

	i.logger.Info("dataset imported", "run_id", runID, "records", len(records))
	return len(records), nil
}

// Parse reads the sheet export. Expected columns: Day, Age, Gender, A-F.
// A header row is detected by the literal "Day" in the first column. Bucket
// values are kept as raw strings; blanks become "0".
func Parse(r io.Reader) ([]model.ChartRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 9
	cr.TrimLeadingSpace = true

	var records []model.ChartRecord
	line := 0
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", line+1, err)
		}
		line++

		if line == 1 && strings.EqualFold(row[0], "Day") {
			continue
		}

		rec := model.ChartRecord{
			Day:    strings.TrimSpace(row[0]),
			Age:    strings.TrimSpace(row[1]),
			Gender: strings.ToLower(strings.TrimSpace(row[2])),
			A:      bucketValue(row[3]),
			B:      bucketValue(row[4]),
			C:      bucketValue(row[5]),
			D:      bucketValue(row[6]),
			E:      bucketValue(row[7]),
			F:      bucketValue(row[8]),
		}
		if rec.Day == "" {
			return nil, fmt.Errorf("row %d: missing day", line)
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("dataset is empty")
	}
	return records, nil
}

func bucketValue(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "0"
	}
	return s
}
