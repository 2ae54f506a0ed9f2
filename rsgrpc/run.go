package rsgrpc

import "context"

// Run drives queue until it shuts down, dispatching every completion event
// from the calling goroutine. All subscriber callbacks for calls posted on
// queue fire from inside this loop.
func Run(ctx context.Context, queue *Queue) error {
	return queue.ProcessAll(ctx)
}

// RunOne dispatches a single completion event, or reports Timeout/Shutdown.
func RunOne(ctx context.Context, queue *Queue) (ProcessResult, error) {
	return queue.ProcessOne(ctx)
}
