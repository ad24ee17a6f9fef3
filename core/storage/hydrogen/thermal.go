package hydrogen

// ThermalOutputKW is the heat released by both stacks at timestep t,
// including compressor losses while the electrolyzer draws power.
func (s *System) ThermalOutputKW(t int) float64 {
	q := s.EL.HeatVecKW[t] + s.FC.HeatVecKW[t]
	if s.EL.PowerVecKW[t] > 0 && s.compressionKW > 0 {
		q += s.compressionKW * (1 - s.in.CompressorEfficiency)
	}
	return q
}

// McpJPerK is the heat capacity of the stacks in J/K.
func (s *System) McpJPerK() float64 {
	th := s.in.Thermal
	return th.DensityElectrolyzer*s.EL.RatedKW()*th.CpElectrolyzer +
		th.DensityFuelCell*s.FC.RatedKW()*th.CpFuelCell
}
