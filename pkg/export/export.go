// Package export writes simulation results to CSV and JSON.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/kilianp07/microgrid/core/commitment"
	"github.com/kilianp07/microgrid/core/metrics/daily"
)

// Series is one named column of a time series export.
type Series struct {
	Name   string
	Values []float64
}

// WriteSummaryJSON writes v to w as indented JSON.
func WriteSummaryJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteTimeSeriesCSV writes a time_hrs column followed by each series. All
// series must have the length of timeHrs.
func WriteTimeSeriesCSV(w io.Writer, timeHrs []float64, series ...Series) error {
	header := []string{"time_hrs"}
	for _, s := range series {
		if len(s.Values) != len(timeHrs) {
			return fmt.Errorf("series %q has %d values, want %d", s.Name, len(s.Values), len(timeHrs))
		}
		header = append(header, s.Name)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	rec := make([]string, len(header))
	for i, t := range timeHrs {
		rec[0] = formatFloat(t)
		for j, s := range series {
			rec[j+1] = formatFloat(s.Values[i])
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCommitmentCSV writes the unit commitment table, one column per
// generator with 1 for online.
func WriteCommitmentCSV(w io.Writer, entries []commitment.Entry) error {
	cw := csv.NewWriter(w)
	header := []string{"capacity_kw", "units"}
	if len(entries) > 0 {
		for i := range entries[0].State {
			header = append(header, "gen_"+strconv.Itoa(i))
		}
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, e := range entries {
		rec := []string{formatFloat(e.CapacityKW), strconv.Itoa(e.Units)}
		for _, on := range e.State {
			if on {
				rec = append(rec, "1")
			} else {
				rec = append(rec, "0")
			}
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteDailyCSV writes daily energy totals to path, creating parent
// directories as needed.
func WriteDailyCSV(path string, recs []daily.Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(f)
	if err := cw.Write([]string{"run_id", "day", "load_kwh", "renewable_kwh", "curtailed_kwh", "missed_kwh", "served_fraction", "renewable_penetration"}); err != nil {
		f.Close()
		return err
	}
	for _, r := range recs {
		rec := []string{
			r.RunID,
			strconv.Itoa(r.Day),
			formatFloat(r.LoadKWh),
			formatFloat(r.RenewableKWh),
			formatFloat(r.CurtailedKWh),
			formatFloat(r.MissedKWh),
			formatFloat(r.ServedFraction()),
			formatFloat(r.RenewablePenetration()),
		}
		if err := cw.Write(rec); err != nil {
			f.Close()
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteFile creates path and hands the file to write.
func WriteFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
