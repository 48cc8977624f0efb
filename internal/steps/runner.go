package steps

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/brewgpio/brewgpio/internal/persistence"
	"github.com/brewgpio/brewgpio/internal/ui"
)

var (
	ErrStepNotFound = errors.New("step not found")
	ErrRunnerBusy   = errors.New("another step is running")
)

// Runner executes steps one at a time and records their results
type Runner struct {
	steps       []Step
	persistence persistence.Persistence

	running sync.Mutex

	mu      sync.RWMutex
	current Step
	cancel  context.CancelFunc
}

// NewRunner creates a runner for the given steps, persistence may be nil
func NewRunner(steps []Step, persistence persistence.Persistence) *Runner {
	return &Runner{
		steps:       steps,
		persistence: persistence,
	}
}

func (r *Runner) Steps() []Step {
	return r.steps
}

func (r *Runner) Get(id string) (Step, bool) {
	for _, step := range r.steps {
		if step.GetId() == id {
			return step, true
		}
	}
	return nil, false
}

// Current returns the step that is running right now, if any
func (r *Runner) Current() (Step, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current, r.current != nil
}

// RunAll executes all steps in order. A failed step does not stop the sequence,
// a cancelled one does.
func (r *Runner) RunAll(ctx context.Context) error {
	if !r.running.TryLock() {
		return ErrRunnerBusy
	}
	defer r.running.Unlock()

	for _, step := range r.steps {
		if ctx.Err() != nil {
			return nil
		}
		result := r.execute(ctx, step)
		if result.Status == persistence.StepStatusCancelled {
			return nil
		}
	}
	ui.Success("All steps finished")
	return nil
}

// RunStep executes a single step, unless another step is running
func (r *Runner) RunStep(ctx context.Context, id string) (persistence.StepResult, error) {
	step, ok := r.Get(id)
	if !ok {
		return persistence.StepResult{}, fmt.Errorf("%w: %s", ErrStepNotFound, id)
	}
	if !r.running.TryLock() {
		return persistence.StepResult{}, ErrRunnerBusy
	}
	defer r.running.Unlock()

	return r.execute(ctx, step), nil
}

// Start executes a single step in the background, unless another step is running
func (r *Runner) Start(ctx context.Context, id string) error {
	step, ok := r.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrStepNotFound, id)
	}
	if !r.running.TryLock() {
		return ErrRunnerBusy
	}
	ctx = r.activate(ctx, step)
	go func() {
		defer r.running.Unlock()
		r.run(ctx, step)
	}()
	return nil
}

// Stop cancels the running step, returns false if no step is running
func (r *Runner) Stop() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.cancel == nil {
		return false
	}
	r.cancel()
	return true
}

func (r *Runner) execute(ctx context.Context, step Step) persistence.StepResult {
	return r.run(r.activate(ctx, step), step)
}

// activate marks the step as current, it can be stopped from now on
func (r *Runner) activate(ctx context.Context, step Step) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = step
	r.cancel = cancel
	return ctx
}

func (r *Runner) run(ctx context.Context, step Step) persistence.StepResult {
	defer func() {
		r.mu.Lock()
		cancel := r.cancel
		r.current = nil
		r.cancel = nil
		r.mu.Unlock()
		if cancel != nil {
			cancel()
		}
	}()

	ui.Info("Starting step %s (%s)", step.GetId(), step.GetType())
	result := step.Run(ctx)
	ui.Info("Step %s finished with status %s", step.GetId(), result.Status)

	if r.persistence != nil {
		if err := r.persistence.SaveStepResult(result); err != nil {
			ui.Warning("Unable to save result of step %s: %v", step.GetId(), err)
		}
	}
	return result
}
