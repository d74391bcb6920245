package core

import (
	"context"

	"entropack/pkg/opctl"
)

// Job is one independent file or folder operation.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// RunParallel starts every job under its own Coordinator so they run
// concurrently, waits for all of them, and returns their errors in job
// order.  Cancelling ctx cancels every job.
func RunParallel(ctx context.Context, jobs []Job) []error {
	coords := make([]opctl.Coordinator, len(jobs))
	tasks := make([]*opctl.Task, len(jobs))
	for i, job := range jobs {
		log.Debugf("starting %s", job.Name)
		tasks[i] = coords[i].Start(ctx, job.Run)
	}

	errs := make([]error, len(jobs))
	for i, t := range tasks {
		errs[i] = t.Wait()
		if errs[i] != nil {
			log.Debugf("%s finished: %v", jobs[i].Name, errs[i])
		}
	}
	return errs
}
