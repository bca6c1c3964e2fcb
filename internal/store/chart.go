package store

import (
	"database/sql"
	"fmt"
	"strings"

	"vizboard/internal/model"
)

// ChartStore reads and seeds the time-spent dataset.
type ChartStore struct {
	db *sql.DB
}

func NewChartStore(db *sql.DB) *ChartStore {
	return &ChartStore{db: db}
}

const chartCols = `day, age, gender, a, b, c, d, e, f`

func scanChartRecord(scanner interface{ Scan(...any) error }) (model.ChartRecord, error) {
	var r model.ChartRecord
	err := scanner.Scan(&r.Day, &r.Age, &r.Gender, &r.A, &r.B, &r.C, &r.D, &r.E, &r.F)
	return r, err
}

// QueryFilter narrows the dataset. Empty fields match everything. Day strings
// are ISO dates, so the range comparison is lexical.
type QueryFilter struct {
	AgeRange  string
	Gender    string
	StartDate string
	EndDate   string
}

// Query returns matching records ordered by day ascending.
func (s *ChartStore) Query(f QueryFilter) ([]model.ChartRecord, error) {
	var (
		conds []string
		args  []any
	)
	if f.AgeRange != "" {
		conds = append(conds, "age = ?")
		args = append(args, f.AgeRange)
	}
	if f.Gender != "" {
		conds = append(conds, "gender = ?")
		args = append(args, f.Gender)
	}
	if f.StartDate != "" {
		conds = append(conds, "day >= ?")
		args = append(args, f.StartDate)
	}
	if f.EndDate != "" {
		conds = append(conds, "day <= ?")
		args = append(args, f.EndDate)
	}

	query := `SELECT ` + chartCols + ` FROM chart_records`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY day ASC, id ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query chart records: %w", err)
	}
	defer rows.Close()

	var records []model.ChartRecord
	for rows.Next() {
		r, err := scanChartRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chart record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chart records: %w", err)
	}
	return records, nil
}

// Days returns the distinct days present in the dataset, ascending.
func (s *ChartStore) Days() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT day FROM chart_records ORDER BY day ASC`)
	if err != nil {
		return nil, fmt.Errorf("query days: %w", err)
	}
	defer rows.Close()

	var days []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan day: %w", err)
		}
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate days: %w", err)
	}
	return days, nil
}

// Count returns the total number of records.
func (s *ChartStore) Count() (int64, error) {
	var n int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM chart_records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count chart records: %w", err)
	}
	return n, nil
}

// BulkInsert loads records in a single transaction. Used by the dataset importer.
func (s *ChartStore) BulkInsert(records []model.ChartRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO chart_records (` + chartCols + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.Exec(r.Day, r.Age, r.Gender, r.A, r.B, r.C, r.D, r.E, r.F); err != nil {
			return fmt.Errorf("insert chart record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
