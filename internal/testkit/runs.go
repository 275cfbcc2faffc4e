package testkit

import (
	"context"

	"gounc/internal/engine"
	"gounc/internal/sampling"
)

// IshigamiRun executes every stage of an Ishigami analysis with nBase base
// samples and returns the engine holding the results
func IshigamiRun(ctx context.Context, nBase int, secondOrder bool) (*engine.Engine, error) {
	in := IshigamiInput()
	e, err := engine.New(IshigamiModel(in), engine.Options{Name: "ishigami", Workers: 2}, in)
	if err != nil {
		return nil, err
	}
	opts := engine.RunOptions{Sample: sampling.Options{NSamples: nBase, SecondOrder: secondOrder, Seed: 11}}
	if err := e.Run(ctx, opts); err != nil {
		return nil, err
	}
	return e, nil
}
