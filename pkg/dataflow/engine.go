package dataflow

import "context"

// Engine schedules and runs submitted graphs. SubmitGraph is non-blocking:
// it validates and plans the graph, then returns a handle while the job runs.
// PollStatus reports the job's current state; callers poll until a terminal
// status. Close releases the engine session and must be called on every exit
// path; it does not cancel jobs already submitted.
type Engine interface {
	SubmitGraph(ctx context.Context, graph *Graph) (JobHandle, error)
	PollStatus(ctx context.Context, handle JobHandle) (StatusReport, error)
	Close() error
}
