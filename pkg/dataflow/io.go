package dataflow

// Writer receives pairs emitted by a processor.
type Writer interface {
	Write(pair KeyValue) error
}

// Collector is a Writer that buffers pairs in memory.
type Collector struct {
	Pairs []KeyValue
}

func (c *Collector) Write(pair KeyValue) error {
	c.Pairs = append(c.Pairs, pair)
	return nil
}

// RecordReader iterates the records of one split. Next returns io.EOF after
// the last record. Readers are restartable per task: reopening the split
// yields the same records.
type RecordReader interface {
	Next() (Record, error)
	Close() error
}

// Source enumerates input splits and opens them for reading.
type Source interface {
	Splits() ([]Split, error)
	Open(split Split) (RecordReader, error)
}

// StagedHandle refers to one task's staged, not yet visible output.
type StagedHandle struct {
	Partition int    `json:"partition"`
	Path      string `json:"path"`
	Records   int    `json:"records"`
}

// Sink persists job output with two-phase commit. Stage writes one task's
// pairs to a private location and may be called concurrently by task
// instances. Commit atomically publishes all staged output under the final
// location; it must be called at most once, and only after every task of the
// producing stage succeeded. Discard removes staged output that will never
// be committed.
type Sink interface {
	Stage(partition int, pairs []KeyValue) (StagedHandle, error)
	Commit(handles []StagedHandle) error
	Discard() error
}
