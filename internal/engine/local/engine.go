package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"

	"github.com/wordflow/wordflow/internal/shared/logging"
	"github.com/wordflow/wordflow/pkg/dataflow"
)

// Config holds tunables for the in-process engine.
type Config struct {
	// Workers bounds how many task instances run concurrently per stage.
	// Zero means one per CPU.
	Workers int
}

// Engine runs dataflow graphs inside the calling process. A submitted job
// executes asynchronously: producer tasks feed the shuffle edge from a
// bounded worker pool, the edge seals once all producers finished, consumer
// tasks aggregate the sealed partitions, and a single commit publishes the
// output only after every consumer succeeded.
type Engine struct {
	workers int
	logger  logging.Logger
	store   *jobStore

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewEngine(config Config, logger logging.Logger) *Engine {
	workers := config.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Engine{
		workers: workers,
		logger:  logger,
		store:   newJobStore(),
	}
}

// SubmitGraph validates and plans the graph, then starts it in the
// background and returns its handle.
func (e *Engine) SubmitGraph(_ context.Context, graph *dataflow.Graph) (dataflow.JobHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return dataflow.JobHandle{}, dataflow.ErrEngineUnavailable
	}

	if err := graph.Validate(); err != nil {
		return dataflow.JobHandle{}, err
	}
	plan, err := planJob(graph)
	if err != nil {
		return dataflow.JobHandle{}, err
	}

	handle := e.store.create(graph.Name)
	e.logger.Info("Job submitted", "job_id", handle.ID.String(), "graph", graph.Name)

	e.wg.Go(func() {
		e.runJob(handle, plan)
	})

	return handle, nil
}

func (e *Engine) PollStatus(_ context.Context, handle dataflow.JobHandle) (dataflow.StatusReport, error) {
	return e.store.report(handle)
}

// Close stops accepting new jobs and waits for in-flight jobs to reach a
// terminal state. Submitted work is never cancelled.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	e.wg.Wait()
	return nil
}

// jobPlan is a graph resolved against the registries: the two vertices of
// the single partitioned edge plus their processor, source and sink
// instances.
type jobPlan struct {
	producer   dataflow.Vertex
	consumer   dataflow.Vertex
	partitions int

	processor dataflow.RecordProcessor
	grouper   dataflow.GroupProcessor
	source    dataflow.Source
	sink      dataflow.Sink
}

func planJob(graph *dataflow.Graph) (*jobPlan, error) {
	if len(graph.Vertices) != 2 || len(graph.Edges) != 1 {
		return nil, fmt.Errorf("%w: engine runs two-vertex single-edge graphs, got %d vertices and %d edges",
			dataflow.ErrMalformedGraph, len(graph.Vertices), len(graph.Edges))
	}

	edge := graph.Edges[0]
	var producer, consumer dataflow.Vertex
	for _, vertex := range graph.Vertices {
		switch vertex.Name {
		case edge.From:
			producer = vertex
		case edge.To:
			consumer = vertex
		}
	}

	if producer.Source == nil {
		return nil, fmt.Errorf("%w: producer vertex %q has no source", dataflow.ErrMalformedGraph, producer.Name)
	}
	if consumer.Sink == nil {
		return nil, fmt.Errorf("%w: consumer vertex %q has no sink", dataflow.ErrMalformedGraph, consumer.Name)
	}

	processor, err := dataflow.GetRecordProcessor(producer.Processor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dataflow.ErrMalformedGraph, err)
	}
	grouper, err := dataflow.GetGroupProcessor(consumer.Processor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dataflow.ErrMalformedGraph, err)
	}

	source, err := dataflow.NewSource(*producer.Source)
	if err != nil {
		if errors.Is(err, dataflow.ErrSourceUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", dataflow.ErrMalformedGraph, err)
	}
	sink, err := dataflow.NewSink(*consumer.Sink)
	if err != nil {
		if errors.Is(err, dataflow.ErrSinkUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", dataflow.ErrMalformedGraph, err)
	}

	return &jobPlan{
		producer:   producer,
		consumer:   consumer,
		partitions: edge.Partitions,
		processor:  processor,
		grouper:    grouper,
		source:     source,
		sink:       sink,
	}, nil
}

func (e *Engine) runJob(handle dataflow.JobHandle, plan *jobPlan) {
	defer func() {
		if err := plan.sink.Discard(); err != nil {
			e.logger.Warn("Failed to discard staged output", "job_id", handle.ID.String(), "error", err)
		}
	}()

	e.store.start(handle)
	e.logger.Info("Job running", "job_id", handle.ID.String())

	if err := e.execute(handle, plan); err != nil {
		e.store.finish(handle, err)
		e.logger.Error("Job failed", "job_id", handle.ID.String(), "error", err)
		return
	}

	e.store.finish(handle, nil)
	e.logger.Info("Job succeeded", "job_id", handle.ID.String())
}

func (e *Engine) execute(handle dataflow.JobHandle, plan *jobPlan) error {
	splits, err := plan.source.Splits()
	if err != nil {
		return err
	}

	e.store.initStage(handle, plan.producer.Name, len(splits))
	e.store.initStage(handle, plan.consumer.Name, plan.partitions)

	edge := newShuffle(plan.partitions, len(splits))

	producers := newTaskPool(e.workers)
	producers.start()
	for _, split := range splits {
		producers.submit(e.producerTask(handle, plan, edge, split))
	}
	if errs := producers.close(); len(errs) > 0 {
		return errors.Join(errs...)
	}

	// All producers finished; the edge can group.
	groups, err := edge.seal()
	if err != nil {
		return err
	}

	consumers := newTaskPool(e.workers)
	consumers.start()
	staged := make([]dataflow.StagedHandle, plan.partitions)
	for partition := range plan.partitions {
		consumers.submit(e.consumerTask(handle, plan, groups[partition], partition, &staged[partition]))
	}
	if errs := consumers.close(); len(errs) > 0 {
		return errors.Join(errs...)
	}

	// Every consumer task succeeded: publish the output, exactly once.
	return plan.sink.Commit(staged)
}

func (e *Engine) producerTask(handle dataflow.JobHandle, plan *jobPlan, edge *shuffle, split dataflow.Split) func() error {
	return func() (err error) {
		e.store.taskRunning(handle, plan.producer.Name)
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("task panic: %v", r)
			}
			if err != nil {
				e.store.taskFailed(handle, plan.producer.Name)
				return
			}
			e.store.taskCompleted(handle, plan.producer.Name)
		}()

		reader, err := plan.source.Open(split)
		if err != nil {
			return err
		}
		defer reader.Close()

		out := edge.writer()
		for {
			record, err := reader.Next()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return fmt.Errorf("read %s: %w", split.Path, err)
			}
			if err := plan.processor.Process(record, out); err != nil {
				return fmt.Errorf("process %s: %w", record.Origin, err)
			}
		}

		edge.finish()
		return nil
	}
}

func (e *Engine) consumerTask(handle dataflow.JobHandle, plan *jobPlan, groups []dataflow.Grouped, partition int, staged *dataflow.StagedHandle) func() error {
	return func() (err error) {
		e.store.taskRunning(handle, plan.consumer.Name)
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("task panic: %v", r)
			}
			if err != nil {
				e.store.taskFailed(handle, plan.consumer.Name)
				return
			}
			e.store.taskCompleted(handle, plan.consumer.Name)
		}()

		var out dataflow.Collector
		for _, group := range groups {
			if err := plan.grouper.Process(group, &out); err != nil {
				return fmt.Errorf("aggregate %q: %w", group.Key, err)
			}
		}

		result, err := plan.sink.Stage(partition, out.Pairs)
		if err != nil {
			return err
		}
		*staged = result
		e.store.addRecords(handle, int64(result.Records))
		return nil
	}
}
