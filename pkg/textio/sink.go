package textio

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/wordflow/wordflow/pkg/dataflow"
)

// Sink persists result pairs as tab-separated lines under a directory, with
// two-phase commit: task output is staged into a hidden sibling directory,
// then a single atomic rename publishes it under the final path. Until
// Commit succeeds nothing is visible at the final path.
type Sink struct {
	finalPath  string
	stagingDir string

	mu        sync.Mutex
	committed bool
}

// NewSink prepares a staged sink for the given output directory. The final
// path must not exist yet and its parent must be writable; creating the
// staging directory probes both.
func NewSink(path string) (*Sink, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("%w: output path %s already exists", dataflow.ErrSinkUnavailable, path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %v", dataflow.ErrSinkUnavailable, err)
	}

	// Staging lives next to the final path so the commit rename never
	// crosses filesystems.
	stagingDir, err := os.MkdirTemp(filepath.Dir(path), "."+filepath.Base(path)+".staging-")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dataflow.ErrSinkUnavailable, err)
	}

	return &Sink{finalPath: path, stagingDir: stagingDir}, nil
}

// Stage writes one task's pairs to a private part file inside the staging
// directory. Safe for concurrent use: each partition owns its own file.
func (s *Sink) Stage(partition int, pairs []dataflow.KeyValue) (dataflow.StagedHandle, error) {
	path := filepath.Join(s.stagingDir, fmt.Sprintf("part-%05d", partition))

	file, err := os.Create(path)
	if err != nil {
		return dataflow.StagedHandle{}, fmt.Errorf("%w: %v", dataflow.ErrSinkUnavailable, err)
	}

	writer := bufio.NewWriter(file)
	for _, pair := range pairs {
		if _, err := fmt.Fprintf(writer, "%s\t%s\n", pair.Key, pair.Value); err != nil {
			file.Close()
			return dataflow.StagedHandle{}, fmt.Errorf("%w: %v", dataflow.ErrSinkUnavailable, err)
		}
	}
	if err := writer.Flush(); err != nil {
		file.Close()
		return dataflow.StagedHandle{}, fmt.Errorf("%w: %v", dataflow.ErrSinkUnavailable, err)
	}
	if err := file.Close(); err != nil {
		return dataflow.StagedHandle{}, fmt.Errorf("%w: %v", dataflow.ErrSinkUnavailable, err)
	}

	return dataflow.StagedHandle{Partition: partition, Path: path, Records: len(pairs)}, nil
}

// Commit atomically publishes the staging directory under the final path.
// It runs at most once per sink; callers must only invoke it after every
// staging task succeeded. Every handle is verified to still exist before the
// rename, so a lost part file fails the commit instead of publishing a hole.
func (s *Sink) Commit(handles []dataflow.StagedHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.committed {
		return fmt.Errorf("%w: output already committed to %s", dataflow.ErrCommitFailed, s.finalPath)
	}

	for _, handle := range handles {
		if _, err := os.Stat(handle.Path); err != nil {
			return fmt.Errorf("%w: staged output for partition %d missing: %v", dataflow.ErrCommitFailed, handle.Partition, err)
		}
	}

	if err := os.Rename(s.stagingDir, s.finalPath); err != nil {
		return fmt.Errorf("%w: %v", dataflow.ErrCommitFailed, err)
	}
	s.committed = true
	return nil
}

// Discard removes staged output that will never be committed. Discarding
// after a successful commit is a no-op.
func (s *Sink) Discard() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.committed {
		return nil
	}
	return os.RemoveAll(s.stagingDir)
}
