package server

import "github.com/avast/epstats/pkg/experiment"

// toEvaluateResponse converts the domain Result into its wire shape,
// widening every float64 into the NaN/Infinity-preserving Number type.
func toEvaluateResponse(r *experiment.Result) EvaluateResponse {
	metrics := make([]MetricResultDTO, len(r.Metrics))
	for i, m := range r.Metrics {
		stats := make([]MetricStatDTO, len(m.Stats))
		for j, s := range m.Stats {
			stats[j] = MetricStatDTO{
				ExpVariantID:       s.ExpVariantID,
				Diff:               Number(s.Diff),
				Mean:               Number(s.Mean),
				SumValue:           Number(s.SumValue),
				PValue:             Number(s.PValue),
				ConfidenceInterval: Number(s.ConfidenceInterval),
				ConfidenceLevel:    Number(s.ConfidenceLevel),
				SampleSize:         Number(s.SampleSize),
				RequiredSampleSize: Number(s.RequiredSampleSize),
				Power:              Number(s.Power),
				StandardError:      Number(s.StandardError),
				TestStat:           Number(s.TestStat),
				DegreesOfFreedom:   Number(s.DegreesOfFreedom),
				MinimumEffect:      s.MinimumEffect,
			}
		}
		metrics[i] = MetricResultDTO{
			ID:              m.ID,
			Name:            m.Name,
			Format:          m.Format,
			ValueMultiplier: m.ValueMultiplier,
			Stats:           stats,
		}
	}

	checks := make([]CheckResultDTO, len(r.Checks))
	for i, c := range r.Checks {
		stats := make([]CheckStatDTO, len(c.Stats))
		for j, s := range c.Stats {
			stats[j] = CheckStatDTO{VariableID: s.VariableID, Value: Number(s.Value)}
		}
		checks[i] = CheckResultDTO{ID: c.ID, Name: c.Name, Stats: stats}
	}

	exposureStats := make([]ExposureStatDTO, len(r.Exposure.Stats))
	for i, s := range r.Exposure.Stats {
		exposureStats[i] = ExposureStatDTO{ExpVariantID: s.ExpVariantID, Count: Number(s.Count)}
	}

	return EvaluateResponse{
		ID:       r.ID,
		Metrics:  metrics,
		Checks:   checks,
		Exposure: ExposureResultDTO{UnitType: r.Exposure.UnitType, Stats: exposureStats},
	}
}
