package driver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/wordflow/wordflow/pkg/dataflow"
	"github.com/wordflow/wordflow/pkg/textio"
	"github.com/wordflow/wordflow/pkg/wordcount"
)

const (
	GraphName       = "wordcount"
	TokenizerVertex = "tokenizer"
	SummationVertex = "summation"

	DefaultPollInterval = 500 * time.Millisecond
)

// Logger is the subset of the shared logger the controller uses.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config parameterizes one word count job.
type Config struct {
	// Input is a glob pattern of text files to count.
	Input string
	// Output is the directory the result is committed to. It must not
	// exist yet.
	Output string
	// Partitions sets the aggregation parallelism and the shuffle fan-out.
	Partitions int
	// PollInterval is the status polling cadence while awaiting
	// completion. Zero means DefaultPollInterval.
	PollInterval time.Duration
}

// Outcome is the terminal result of a job.
type Outcome struct {
	Status      dataflow.JobStatus
	Diagnostics []string
	Records     int64
}

// Controller drives one job end to end: build the graph, submit it to the
// engine, poll until a terminal status.
type Controller struct {
	config Config
	engine dataflow.Engine
	logger Logger
}

func New(config Config, engine dataflow.Engine, logger Logger) *Controller {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}
	return &Controller{
		config: config,
		engine: engine,
		logger: logger,
	}
}

// BuildGraph validates the configuration and constructs the two-stage
// graph: a tokenizer vertex reading the input pattern, a summation vertex
// with one task per partition committing to the output path, and the
// partitioned edge between them. Unreachable input or unwritable output
// fails here, before anything is submitted.
func (c *Controller) BuildGraph() (*dataflow.Graph, error) {
	if c.config.Partitions < 1 {
		return nil, fmt.Errorf("%w: partitions must be >= 1, got %d", dataflow.ErrInvalidConfig, c.config.Partitions)
	}
	if c.config.Input == "" {
		return nil, fmt.Errorf("%w: input pattern is empty", dataflow.ErrInvalidConfig)
	}
	if c.config.Output == "" {
		return nil, fmt.Errorf("%w: output path is empty", dataflow.ErrInvalidConfig)
	}

	if err := c.probeLocations(); err != nil {
		return nil, fmt.Errorf("%w: %w", dataflow.ErrInvalidConfig, err)
	}

	return &dataflow.Graph{
		Name: GraphName,
		Vertices: []dataflow.Vertex{
			{
				Name:      TokenizerVertex,
				Processor: wordcount.TokenizerName,
				Source:    &dataflow.SourceSpec{Type: textio.TypeName, Path: c.config.Input},
			},
			{
				Name:        SummationVertex,
				Processor:   wordcount.SummationName,
				Parallelism: c.config.Partitions,
				Sink:        &dataflow.SinkSpec{Type: textio.TypeName, Path: c.config.Output},
			},
		},
		Edges: []dataflow.Edge{
			{From: TokenizerVertex, To: SummationVertex, Partitions: c.config.Partitions},
		},
	}, nil
}

func (c *Controller) probeLocations() error {
	source, err := dataflow.NewSource(dataflow.SourceSpec{Type: textio.TypeName, Path: c.config.Input})
	if err != nil {
		return err
	}
	splits, err := source.Splits()
	if err != nil {
		return err
	}
	c.logger.Debug("Input probed", "pattern", c.config.Input, "splits", len(splits))

	sink, err := dataflow.NewSink(dataflow.SinkSpec{Type: textio.TypeName, Path: c.config.Output})
	if err != nil {
		return err
	}
	// The probe staged nothing; drop its scratch space.
	return sink.Discard()
}

// Submit hands the graph to the engine without waiting for it to run.
func (c *Controller) Submit(ctx context.Context, graph *dataflow.Graph) (dataflow.JobHandle, error) {
	handle, err := c.engine.SubmitGraph(ctx, graph)
	if err != nil {
		return dataflow.JobHandle{}, fmt.Errorf("submit graph %q: %w", graph.Name, err)
	}
	c.logger.Info("Job submitted", "job_id", handle.ID.String(), "graph", graph.Name)
	return handle, nil
}

// AwaitCompletion polls the engine until the job reaches a terminal status.
// An unreachable engine leaves the job state unknown, so those polls are
// retried instead of failing the wait. Cancelling the context abandons the
// wait; the submitted job keeps running.
func (c *Controller) AwaitCompletion(ctx context.Context, handle dataflow.JobHandle) (Outcome, error) {
	ticker := time.NewTicker(c.config.PollInterval)
	defer ticker.Stop()

	var last dataflow.JobStatus
	for {
		report, err := c.engine.PollStatus(ctx, handle)
		switch {
		case errors.Is(err, dataflow.ErrEngineUnavailable):
			c.logger.Warn("Engine unreachable, retrying", "job_id", handle.ID.String(), "error", err)
		case err != nil:
			return Outcome{}, fmt.Errorf("poll job %s: %w", handle.ID, err)
		default:
			if report.Status != last {
				c.logger.Info("Job status changed", "job_id", handle.ID.String(), "status", string(report.Status))
				last = report.Status
			}
			for vertex, progress := range report.Progress {
				c.logger.Debug("Vertex progress",
					"job_id", handle.ID.String(),
					"vertex", vertex,
					"completed", progress.Completed,
					"failed", progress.Failed,
					"total", progress.Total,
				)
			}
			if report.Status.Terminal() {
				return Outcome{
					Status:      report.Status,
					Diagnostics: report.Diagnostics,
					Records:     report.Records,
				}, nil
			}
		}

		select {
		case <-ctx.Done():
			c.logger.Warn("Wait cancelled, job continues running", "job_id", handle.ID.String())
			return Outcome{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Run executes the full lifecycle: build, submit, await. The engine session
// is closed on every exit path; closing does not cancel a submitted job. A
// FAILED outcome surfaces its diagnostics and a non-nil error.
func (c *Controller) Run(ctx context.Context) (Outcome, error) {
	defer func() {
		if err := c.engine.Close(); err != nil {
			c.logger.Warn("Failed to close engine session", "error", err)
		}
	}()

	graph, err := c.BuildGraph()
	if err != nil {
		return Outcome{}, err
	}

	handle, err := c.Submit(ctx, graph)
	if err != nil {
		return Outcome{}, err
	}

	outcome, err := c.AwaitCompletion(ctx, handle)
	if err != nil {
		return Outcome{}, err
	}

	if outcome.Status == dataflow.JobStatusFailed {
		for _, diagnostic := range outcome.Diagnostics {
			c.logger.Error("Job diagnostic", "job_id", handle.ID.String(), "message", diagnostic)
		}
		return outcome, fmt.Errorf("job %s failed", handle.ID)
	}

	c.logger.Info("Job succeeded", "job_id", handle.ID.String(), "records", humanize.Comma(outcome.Records))
	return outcome, nil
}
