package lightcurve

import (
	"sync"

	"github.com/stellarbin/lcmodel/quadrature"
)

// FluxBatch evaluates Flux at every time in times concurrently, bounded by
// workers goroutines (spec.md §5: "the orchestrator's per-observation loop
// is embarrassingly parallel and may be farmed out across a thread pool by
// an external caller"). A workers value <= 0 defaults to 1.
//
// Each goroutine gets its own scratch: Flux holds no process-wide state, so
// no locking is needed beyond the result slice's disjoint index writes.
func FluxBatch(bp *BinaryParameters, ci *ControlIntegers, spots1, spots2 []Spot, norm Normalization, times []float64, workers int, v *quadrature.Verbose) ([]ObservationResult, error) {
	if workers <= 0 {
		workers = 1
	}
	out := make([]ObservationResult, len(times))
	errs := make([]error, len(times))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				res, err := Flux(bp, ci, spots1, spots2, norm, times[idx], v)
				out[idx] = res
				errs[idx] = err
			}
		}()
	}
	for idx := range times {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

// RVBatch is RV's concurrent counterpart, for the radial-velocity-only fast
// path (spec.md §4.9).
func RVBatch(bp *BinaryParameters, times []float64, workers int) ([][2]float64, error) {
	if workers <= 0 {
		workers = 1
	}
	out := make([][2]float64, len(times))
	errs := make([]error, len(times))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				rv1, rv2, err := RV(bp, times[idx])
				out[idx] = [2]float64{rv1, rv2}
				errs[idx] = err
			}
		}()
	}
	for idx := range times {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return out, err
		}
	}
	return out, nil
}
