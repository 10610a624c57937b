package local

import (
	"cmp"
	"fmt"
	"slices"
	"sync"

	"github.com/wordflow/wordflow/pkg/dataflow"
)

// shuffle is the partitioned edge between the producer and consumer stages.
// Producers route pairs into per-partition buffers; after every producer
// reported completion the edge is sealed, sorting and grouping each
// partition by key. Consumers only ever observe sealed partitions, so no
// group is delivered before all of its values arrived.
type shuffle struct {
	partitions int
	producers  int

	mu       sync.Mutex
	buffers  [][]dataflow.KeyValue
	finished int
	sealed   bool
}

func newShuffle(partitions, producers int) *shuffle {
	return &shuffle{
		partitions: partitions,
		producers:  producers,
		buffers:    make([][]dataflow.KeyValue, partitions),
	}
}

func (s *shuffle) emit(pair dataflow.KeyValue) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sealed {
		return fmt.Errorf("%w: emit after seal", dataflow.ErrShuffleIncomplete)
	}

	partition := dataflow.Partition(pair.Key, s.partitions)
	s.buffers[partition] = append(s.buffers[partition], pair)
	return nil
}

// finish records one producer task as fully completed. Producers that fail
// mid-stream never call finish, so their partial output cannot pass the
// seal barrier unnoticed.
func (s *shuffle) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finished++
}

// seal closes the edge and groups every partition. A producer count short
// of the expected total fails the seal: grouping is only correct once every
// emitted pair arrived.
func (s *shuffle) seal() ([][]dataflow.Grouped, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finished != s.producers {
		return nil, fmt.Errorf("%w: %d of %d producers finished", dataflow.ErrShuffleIncomplete, s.finished, s.producers)
	}
	s.sealed = true

	grouped := make([][]dataflow.Grouped, s.partitions)
	for partition, buffer := range s.buffers {
		slices.SortFunc(buffer, func(left, right dataflow.KeyValue) int {
			return cmp.Compare(left.Key, right.Key)
		})
		grouped[partition] = groupSorted(buffer)
	}
	return grouped, nil
}

func groupSorted(pairs []dataflow.KeyValue) []dataflow.Grouped {
	var groups []dataflow.Grouped

	i := 0
	for i < len(pairs) {
		key := pairs[i].Key
		var values []string

		for i < len(pairs) && pairs[i].Key == key {
			values = append(values, pairs[i].Value)
			i++
		}

		groups = append(groups, dataflow.Grouped{Key: key, Values: values})
	}

	return groups
}

func (s *shuffle) writer() dataflow.Writer {
	return writerFunc(s.emit)
}

type writerFunc func(dataflow.KeyValue) error

func (f writerFunc) Write(pair dataflow.KeyValue) error { return f(pair) }
