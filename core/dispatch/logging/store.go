// Package logging persists the timesteps where the dispatcher failed to
// meet load, firm dispatch or spinning reserve.
package logging

import (
	"context"
	"time"
)

// LogRecord captures one shortfall timestep.
type LogRecord struct {
	RunID           string    `json:"run_id"`
	Timestep        int       `json:"timestep"`
	TimeHrs         float64   `json:"time_hrs"`
	LoadKW          float64   `json:"load_kw"`
	NetLoadKW       float64   `json:"net_load_kw"`
	MissedLoadKW    float64   `json:"missed_load_kw"`
	MissedFirmKW    float64   `json:"missed_firm_kw"`
	MissedReserveKW float64   `json:"missed_reserve_kw"`
	Recorded        time.Time `json:"recorded"`
}

// LogQuery defines filters for retrieving records. ToStep zero means no
// upper bound.
type LogQuery struct {
	RunID       string
	FromStep    int
	ToStep      int
	MinMissedKW float64
}

// Matches reports whether r passes every filter of q.
func (q LogQuery) Matches(r LogRecord) bool {
	if q.RunID != "" && r.RunID != q.RunID {
		return false
	}
	if r.Timestep < q.FromStep {
		return false
	}
	if q.ToStep > 0 && r.Timestep > q.ToStep {
		return false
	}
	if q.MinMissedKW > 0 && r.MissedLoadKW < q.MinMissedKW {
		return false
	}
	return true
}

// LogStore persists LogRecords and supports querying.
type LogStore interface {
	Append(ctx context.Context, rec LogRecord) error
	Query(ctx context.Context, q LogQuery) ([]LogRecord, error)
	Close() error
}
