package daily

// Store persists daily energy records.
type Store interface {
	Add(Record) error
	Query(runID string, fromDay, toDay int) ([]Record, error)
}
