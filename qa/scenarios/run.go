package scenarios

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/kilianp07/microgrid/app"
	"github.com/kilianp07/microgrid/config"
)

// RunScenario simulates sc without file outputs and checks its expectations.
func RunScenario(t *testing.T, sc *Scenario) *app.Report {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := sc.WriteConfig(path); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	cfg.Logging.Backend = "none"
	cfg.Output.Disabled = true

	sim, err := app.New(cfg)
	if err != nil {
		t.Fatalf("simulation: %v", err)
	}
	rep, err := sim.Run(context.Background())
	if cerr := sim.Close(); cerr != nil {
		t.Errorf("close: %v", cerr)
	}
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	check(t, sc, rep)
	return rep
}

func check(t *testing.T, sc *Scenario, rep *app.Report) {
	t.Helper()
	e, s := sc.Expected, rep.Summary
	if e.MaxMissedLoadKWh != nil && s.MissedLoadKWh > *e.MaxMissedLoadKWh {
		t.Errorf("scenario %s: missed load %.3f kWh above %.3f", sc.Name, s.MissedLoadKWh, *e.MaxMissedLoadKWh)
	}
	if e.MinMissedLoadKWh != nil && s.MissedLoadKWh < *e.MinMissedLoadKWh {
		t.Errorf("scenario %s: missed load %.3f kWh below %.3f", sc.Name, s.MissedLoadKWh, *e.MinMissedLoadKWh)
	}
	if e.MaxShortfallSteps != nil && s.ShortfallSteps > *e.MaxShortfallSteps {
		t.Errorf("scenario %s: %d shortfall steps, expected at most %d", sc.Name, s.ShortfallSteps, *e.MaxShortfallSteps)
	}
	if e.MinShortfallSteps != nil && s.ShortfallSteps < *e.MinShortfallSteps {
		t.Errorf("scenario %s: %d shortfall steps, expected at least %d", sc.Name, s.ShortfallSteps, *e.MinShortfallSteps)
	}
	if e.MinReplacements != nil && s.Replacements < *e.MinReplacements {
		t.Errorf("scenario %s: %d replacements, expected at least %d", sc.Name, s.Replacements, *e.MinReplacements)
	}
	if e.CommitmentEntries != nil && s.CommitmentEntries != *e.CommitmentEntries {
		t.Errorf("scenario %s: %d commitment entries, expected %d", sc.Name, s.CommitmentEntries, *e.CommitmentEntries)
	}
	if e.MinHydrogenProducedKg != nil {
		produced := 0.0
		for _, st := range rep.Storage {
			if st.Hydrogen != nil {
				produced += st.Hydrogen.HydrogenProducedKg
			}
		}
		if produced < *e.MinHydrogenProducedKg {
			t.Errorf("scenario %s: %.3f kg hydrogen produced, expected at least %.3f", sc.Name, produced, *e.MinHydrogenProducedKg)
		}
	}
}
