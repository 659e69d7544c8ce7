package controller

import (
	"context"
	"errors"

	"github.com/markusressel/fancurve/internal/persistence"
	"github.com/markusressel/fancurve/internal/ui"
)

type persistJob struct {
	name string
	run  func(ctx context.Context) error
	// generation of the config saved by this job, 0 if it does not save the config
	generation int
	reply      chan error
}

// RunPersistenceWorker executes blocking persistence jobs in submission order until ctx is cancelled.
// Jobs submitted after it returned fail with ErrWorkerStopped.
func (c *Controller) RunPersistenceWorker(ctx context.Context) error {
	defer c.workerOnce.Do(func() {
		close(c.workerDone)
	})
	for {
		select {
		case <-ctx.Done():
			return nil
		case job := <-c.jobs:
			ui.Debug("Running persistence job '%s'", job.name)
			err := job.run(ctx)
			if err != nil {
				ui.Warning("Persistence job '%s' failed: %v", job.name, err)
			}
			job.reply <- err
		}
	}
}

// update runs fn with mu held. A job returned by fn is queued while still holding mu,
// so jobs keep the order of their mutations, and awaited after releasing it.
func (c *Controller) update(ctx context.Context, fn func() (*persistJob, error)) error {
	c.mu.Lock()
	job, err := fn()
	if err != nil || job == nil {
		c.mu.Unlock()
		return err
	}

	job.reply = make(chan error, 1)
	select {
	case c.jobs <- *job:
	case <-c.workerDone:
		c.failures.Persistence++
		c.mu.Unlock()
		return ErrWorkerStopped
	case <-ctx.Done():
		c.mu.Unlock()
		return ctx.Err()
	}
	c.mu.Unlock()

	select {
	case err = <-job.reply:
	case <-c.workerDone:
		// the worker may have replied right before exiting
		select {
		case err = <-job.reply:
		default:
			err = ErrWorkerStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	var validationErr *persistence.ValidationError
	if errors.As(err, &validationErr) {
		// the mutation is applied and written, only the read back differs
		ui.Warning("Saved curve config does not read back as written: %v", validationErr)
		c.failures.Validation++
		err = withoutValidationErrors(err)
	}
	if err != nil {
		c.failures.Persistence++
		return err
	}
	if job.generation > c.savedGeneration {
		c.savedGeneration = job.generation
	}
	return nil
}

// withoutValidationErrors drops every *persistence.ValidationError from a possibly joined err
func withoutValidationErrors(err error) error {
	if _, ok := err.(*persistence.ValidationError); ok {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var result error
		for _, e := range joined.Unwrap() {
			result = errors.Join(result, withoutValidationErrors(e))
		}
		return result
	}
	return err
}

// markConfigChanged must be called with mu held after every config mutation
func (c *Controller) markConfigChanged() {
	c.generation++
}
