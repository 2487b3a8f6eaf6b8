package calibration_test

import (
	"context"
	"fmt"

	"github.com/katalvlaran/volfit/calibration"
	"github.com/katalvlaran/volfit/cmaes"
	"github.com/katalvlaran/volfit/svi"
)

// ExampleNewProcess stages a calibration through the builder: any
// calibration.ModelCalibrator implementor plugs into the same pipeline.
// Numeric results depend on the configured budgets, so none are printed.
func ExampleNewProcess() {
	market := symmetricSmile()

	model, err := svi.NewCalibrator(market, nil, nil)
	if err != nil {
		fmt.Println(err)

		return
	}

	cfg := calibration.Minimal()
	cfg.CMAES.Verbosity = cmaes.Silent

	res, err := calibration.NewProcess(model, cfg, market).Run(context.Background())
	if err != nil {
		fmt.Println(err)

		return
	}
	_ = res
}
