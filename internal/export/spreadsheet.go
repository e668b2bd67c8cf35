// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
)

const logSheet = "Sheet1"

// logHeader is the first row of a new run log.
var logHeader = []any{"keyword", "title", "word_count", "timestamp", "status", "target_domain", "language", "link"}

// AppendLog appends rec to the spreadsheet at path, creating the file with
// a header row when it does not exist.
func AppendLog(path string, rec Record) error {
	f, created, err := openOrCreate(path)
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := f.GetRows(logSheet)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	next := len(rows) + 1
	if created {
		if err := setRow(f, 1, logHeader); err != nil {
			return err
		}
		next = 2
	}

	row := []any{
		rec.Keyword,
		rec.Title,
		rec.WordCount,
		rec.Timestamp.Format("2006-01-02 15:04"),
		rec.Status,
		rec.TargetDomain,
		rec.Language,
		rec.Link,
	}
	if err := setRow(f, next, row); err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

// ReadLog returns every data row of the run log, skipping the header.
func ReadLog(path string) ([]Record, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(logSheet)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var out []Record
	for i, r := range rows {
		if i == 0 {
			continue
		}
		cell := func(n int) string {
			if n < len(r) {
				return r[n]
			}
			return ""
		}
		wc, _ := strconv.Atoi(cell(2))
		ts, _ := time.ParseInLocation("2006-01-02 15:04", cell(3), time.Local)
		out = append(out, Record{
			Keyword:      cell(0),
			Title:        cell(1),
			WordCount:    wc,
			Timestamp:    ts,
			Status:       cell(4),
			TargetDomain: cell(5),
			Language:     cell(6),
			Link:         cell(7),
		})
	}
	return out, nil
}

func openOrCreate(path string) (*excelize.File, bool, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return excelize.NewFile(), true, nil
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("opening %s: %w", path, err)
	}
	return f, false, nil
}

func setRow(f *excelize.File, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(logSheet, cell, &values); err != nil {
		return fmt.Errorf("writing row %d: %w", row, err)
	}
	return nil
}
