package svi_test

import (
	"testing"

	"github.com/katalvlaran/volfit/calibration"
	"github.com/katalvlaran/volfit/svi"
)

// benchSlice mirrors syntheticSlice without the testing.T plumbing so the
// benchmarks can share it.
func benchSlice(p svi.Params, strikes []float64, spot float64) []calibration.Observation {
	slice := svi.NewSlice(p)

	rows := make([]calibration.Observation, 0, len(strikes))
	for _, strike := range strikes {
		k := svi.LogMoneyness(strike, spot)
		rows = append(rows, calibration.Observation{
			Type:         calibration.Call,
			Strike:       strike,
			Underlying:   spot,
			TimeToExpiry: p.T(),
			MarketIV:     slice.ImpliedVol(k),
			Vega:         1,
			Expiry:       testExpiry,
		})
	}

	return rows
}

// BenchmarkEvaluateObjective measures the hot path of every optimizer
// candidate: one weighted RMSE pass over an 18-row slice.
func BenchmarkEvaluateObjective(b *testing.B) {
	p, err := svi.NewParams(0.25, 0.04, 0.2, -0.3, 0.0, 0.2)
	if err != nil {
		b.Fatal(err)
	}

	strikes := make([]float64, 0, 18)
	for s := 70.0; s < 124; s += 3 {
		strikes = append(strikes, s)
	}
	data := benchSlice(p, strikes, 100)

	model, err := svi.NewCalibrator(data, nil, nil)
	if err != nil {
		b.Fatal(err)
	}
	x := p.Vector()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = model.EvaluateObjective(x, data)
	}
}

// BenchmarkTotalVariance measures the raw smile evaluation.
func BenchmarkTotalVariance(b *testing.B) {
	p, err := svi.NewParams(0.25, 0.04, 0.2, -0.3, 0.0, 0.2)
	if err != nil {
		b.Fatal(err)
	}
	slice := svi.NewSlice(p)

	var sink float64
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sink += slice.TotalVariance(0.1)
	}
	_ = sink
}
