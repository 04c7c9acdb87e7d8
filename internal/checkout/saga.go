package checkout

import (
	"context"

	"go.uber.org/multierr"
)

// Step is one unit of a saga: a forward action and the compensation that
// undoes it. Compensate may be nil for steps with no lasting side effect.
type Step struct {
	Name       string
	Run        func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// Saga runs steps in order and, on failure, compensates every previously
// completed step in reverse order. The store offers no multi-row transaction
// across reservations, so all-or-nothing comes from explicit compensation.
type Saga struct {
	steps []Step
}

// Add appends a step to the saga.
func (s *Saga) Add(step Step) {
	s.steps = append(s.steps, step)
}

// Execute runs the saga. On step failure it returns the step's error with
// any compensation failures appended, plus whether compensation ran.
// Compensation failures never mask the original error.
func (s *Saga) Execute(ctx context.Context) (compensated bool, err error) {
	completed := make([]Step, 0, len(s.steps))

	for _, step := range s.steps {
		if runErr := step.Run(ctx); runErr != nil {
			compErr := s.compensate(ctx, completed)
			return len(completed) > 0, multierr.Append(runErr, compErr)
		}
		completed = append(completed, step)
	}
	return false, nil
}

func (s *Saga) compensate(ctx context.Context, completed []Step) error {
	var errs []error
	for i := len(completed) - 1; i >= 0; i-- {
		step := completed[i]
		if step.Compensate == nil {
			continue
		}
		if err := step.Compensate(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return multierr.Combine(errs...)
}
