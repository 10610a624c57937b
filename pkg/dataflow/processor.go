package dataflow

// RecordProcessor transforms one input record into zero or more pairs.
// Implementations must be pure and stateless: task instances run
// concurrently and share nothing.
type RecordProcessor interface {
	Process(record Record, out Writer) error
}

// GroupProcessor consumes one grouped record, producing zero or more pairs.
// Called once per key within a partition, after the shuffle barrier.
type GroupProcessor interface {
	Process(group Grouped, out Writer) error
}
