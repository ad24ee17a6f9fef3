package model

// WaveSample is one point of a two-dimensional wave resource.
type WaveSample struct {
	SignificantHeightM float64 `json:"significant_height_m"`
	EnergyPeriodS      float64 `json:"energy_period_s"`
}

// ResourceProvider exposes resource time series keyed by the asset-supplied
// resource key.
type ResourceProvider interface {
	Resource1D(key, t int) (float64, bool)
	Resource2D(key, t int) (WaveSample, bool)
}

// Resources is an in-memory ResourceProvider.
type Resources struct {
	Series1D map[int][]float64
	Series2D map[int][]WaveSample
}

// NewResources returns an empty resource set.
func NewResources() *Resources {
	return &Resources{
		Series1D: make(map[int][]float64),
		Series2D: make(map[int][]WaveSample),
	}
}

// Add1D registers a one-dimensional series (irradiance, wind or tidal speed, flow).
func (r *Resources) Add1D(key int, series []float64) { r.Series1D[key] = series }

// Add2D registers a wave series.
func (r *Resources) Add2D(key int, series []WaveSample) { r.Series2D[key] = series }

func (r *Resources) Resource1D(key, t int) (float64, bool) {
	s, ok := r.Series1D[key]
	if !ok || t >= len(s) {
		return 0, false
	}
	return s[t], true
}

func (r *Resources) Resource2D(key, t int) (WaveSample, bool) {
	s, ok := r.Series2D[key]
	if !ok || t >= len(s) {
		return WaveSample{}, false
	}
	return s[t], true
}
