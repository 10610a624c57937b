package wordcount

import (
	"fmt"
	"strconv"

	"github.com/wordflow/wordflow/pkg/dataflow"
)

// SummationName is the registered processor name for the aggregation stage.
const SummationName = "summation"

func init() {
	dataflow.RegisterGroupProcessor(SummationName, Summation{})
}

// Summation sums every count grouped under one word and emits a single
// (word, total) pair.
type Summation struct{}

func (Summation) Process(group dataflow.Grouped, out dataflow.Writer) error {
	total := 0
	for _, value := range group.Values {
		count, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("malformed count for word %q: %w", group.Key, err)
		}
		total += count
	}
	return out.Write(dataflow.KeyValue{Key: group.Key, Value: strconv.Itoa(total)})
}
