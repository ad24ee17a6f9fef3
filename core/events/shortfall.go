package events

// ShortfallEvent is published for each timestep where a residual exceeds the
// dispatch tolerance.
type ShortfallEvent struct {
	RunID           string
	Timestep        int
	TimeHrs         float64
	MissedLoadKW    float64
	MissedFirmKW    float64
	MissedReserveKW float64
}
