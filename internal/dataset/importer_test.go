package dataset

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"vizboard/internal/database"
	"vizboard/internal/store"
)

const sampleCSV = `Day,Age,Gender,A,B,C,D,E,F
2022-10-04,15-25,Male,2,4,0,0,0,0
2022-10-05,0-25,female,3,,1,0,0,0
`

type readerSource struct {
	r io.Reader
}

func (s readerSource) Name() string { return "test" }

func (s readerSource) Open(ctx context.Context) (io.ReadCloser, error) {
	return io.NopCloser(s.r), nil
}

func TestParse(t *testing.T) {
	records, err := Parse(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	first := records[0]
	if first.Day != "2022-10-04" || first.Age != "15-25" {
		t.Errorf("first = %+v", first)
	}
	// Gender is normalized to lower case.
	if first.Gender != "male" {
		t.Errorf("gender = %q, want male", first.Gender)
	}

	// A blank bucket becomes "0".
	if records[1].B != "0" {
		t.Errorf("B = %q, want 0", records[1].B)
	}
}

func TestParseWithoutHeader(t *testing.T) {
	records, err := Parse(strings.NewReader("2022-10-04,15-25,male,1,2,3,4,5,6\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
}

func TestParseEmpty(t *testing.T) {
	if _, err := Parse(strings.NewReader("Day,Age,Gender,A,B,C,D,E,F\n")); err == nil {
		t.Error("expected error for header-only input")
	}
}

func TestParseMissingDay(t *testing.T) {
	if _, err := Parse(strings.NewReader(",15-25,male,1,2,3,4,5,6\n")); err == nil {
		t.Error("expected error for missing day")
	}
}

func TestParseWrongColumnCount(t *testing.T) {
	if _, err := Parse(strings.NewReader("2022-10-04,15-25,male,1,2\n")); err == nil {
		t.Error("expected error for short row")
	}
}

func TestImporterSeedsOnce(t *testing.T) {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cs := store.NewChartStore(db)
	imp := NewImporter(cs, readerSource{strings.NewReader(sampleCSV)}, slog.Default())

	n, err := imp.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if n != 2 {
		t.Errorf("imported %d, want 2", n)
	}

	// A second run finds records and leaves the table alone.
	imp2 := NewImporter(cs, readerSource{strings.NewReader(sampleCSV)}, slog.Default())
	n, err = imp2.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if n != 0 {
		t.Errorf("second run imported %d, want 0", n)
	}

	count, err := cs.Count()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}
