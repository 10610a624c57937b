package dataflow

// KeyValue is a single emitted or aggregated pair.
type KeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Grouped carries every value contributed for a key within one partition.
// Values are in arbitrary order; each key appears exactly once per partition.
type Grouped struct {
	Key    string
	Values []string
}

// Record is one opaque input payload, consumed once by a record processor.
type Record struct {
	Origin string
	Data   string
}

// Split is an independently readable slice of a source, processed by one
// task instance.
type Split struct {
	ID   int    `json:"id"`
	Path string `json:"path"`
}
