package events

// ReplacementEvent is emitted when a hydrogen sub-unit reaches its
// replacement state of health. Unit is "electrolyzer" or "fuel_cell".
type ReplacementEvent struct {
	RunID    string
	Storage  string
	Unit     string
	Timestep int
	Count    int
}
