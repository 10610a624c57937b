package dataflow

import "errors"

var (
	// ErrInvalidConfig marks invalid job parameters: bad partition counts,
	// unreachable input or unwritable output locations. Surfaced before
	// submission, with no partial work performed.
	ErrInvalidConfig = errors.New("invalid job configuration")

	// ErrMalformedGraph marks a graph the engine cannot plan: dangling edge
	// endpoints, duplicate vertices, unknown processors.
	ErrMalformedGraph = errors.New("malformed graph")

	// ErrSourceUnavailable marks an input location that cannot be opened.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrSinkUnavailable marks an output location that cannot be staged to.
	ErrSinkUnavailable = errors.New("sink unavailable")

	// ErrShuffleIncomplete marks a partition whose grouping cannot be
	// trusted because an upstream producer did not finish.
	ErrShuffleIncomplete = errors.New("shuffle incomplete")

	// ErrCommitFailed marks a commit that must not make output visible:
	// failed aggregation tasks, a failed rename, or a repeated commit.
	ErrCommitFailed = errors.New("commit failed")

	// ErrEngineUnavailable marks an engine that cannot be reached for
	// submission or polling. A poll that fails this way leaves the job state
	// unknown, not failed.
	ErrEngineUnavailable = errors.New("engine unavailable")

	// ErrUnknownJob is returned when polling a handle the engine has no
	// record of.
	ErrUnknownJob = errors.New("unknown job")
)
