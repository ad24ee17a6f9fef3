package app

import (
	"fmt"

	"github.com/kilianp07/microgrid/config"
	"github.com/kilianp07/microgrid/core/model"
	"github.com/kilianp07/microgrid/core/timeseries"
)

// normalizedColumn is the header of renewable production profiles.
const normalizedColumn = "normalized_production"

func buildLoad(c config.LoadConfig) (*model.ElectricalLoad, error) {
	if c.Path == "" {
		return model.ConstantLoad(c.Points, c.DtHrs, c.ConstantKW), nil
	}
	cols, err := timeseries.ReadFile(c.Path, c.TimeColumn, c.LoadColumn)
	if err != nil {
		return nil, err
	}
	return model.NewElectricalLoad(cols[0], cols[1])
}

func buildResources(cfgs []config.ResourceConfig) (*model.Resources, error) {
	res := model.NewResources()
	for _, c := range cfgs {
		if len(c.Values) > 0 {
			res.Add1D(c.Key, c.Values)
			continue
		}
		if !c.IsWave() {
			cols, err := timeseries.ReadFile(c.Path, c.Column)
			if err != nil {
				return nil, fmt.Errorf("key %d: %w", c.Key, err)
			}
			res.Add1D(c.Key, cols[0])
			continue
		}
		cols, err := timeseries.ReadFile(c.Path, c.Column, c.PeriodColumn)
		if err != nil {
			return nil, fmt.Errorf("key %d: %w", c.Key, err)
		}
		series := make([]model.WaveSample, len(cols[0]))
		for i := range series {
			series[i] = model.WaveSample{SignificantHeightM: cols[0][i], EnergyPeriodS: cols[1][i]}
		}
		res.Add2D(c.Key, series)
	}
	return res, nil
}

func readNormalized(path string) ([]float64, error) {
	cols, err := timeseries.ReadFile(path, normalizedColumn)
	if err != nil {
		return nil, err
	}
	return cols[0], nil
}
