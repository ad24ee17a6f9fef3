package hydrogen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDegradationUpdate(t *testing.T) {
	d := newDegradation(DegradationParams{K1: 1e-3, K2: 1e-2, K3: 1e-1})
	assert.Equal(t, 1.0, d.SOH())

	soh := d.Update(true, false, 0.5, 0)
	assert.InDelta(t, 1-(1e-3+1e-2+0.5*1e-1), soh, 1e-12)
	assert.Equal(t, 1, d.StartStops())

	held := d.Update(false, true, 0, 1)
	assert.Equal(t, soh, held)

	d.Update(true, false, 1, 1)
	assert.Equal(t, 2, d.StartStops())
	assert.InDelta(t, 0.75, d.AverageRatio(), 1e-12)

	// a higher average ratio would raise the raw value, SOH never recovers
	before := d.SOH()
	d.Update(true, true, 1, 2)
	assert.LessOrEqual(t, d.SOH(), before)

	d.Reset()
	assert.Equal(t, 1.0, d.SOH())
	assert.Zero(t, d.StartStops())
	assert.Zero(t, d.AverageRatio())
}
