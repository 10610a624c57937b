package textio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/wordflow/wordflow/pkg/dataflow"
)

const scannerBufferSize = 1024 * 1024 // 1MB

// Source reads text records from local files matching a glob pattern, one
// split per file, one record per line.
type Source struct {
	pattern string
}

func NewSource(pattern string) *Source {
	return &Source{pattern: pattern}
}

// Splits lists the regular files matching the pattern, sorted by path so
// split IDs are stable across runs. A pattern matching no files is a source
// error: the job would otherwise silently commit empty output.
func (s *Source) Splits() ([]dataflow.Split, error) {
	matches, err := doublestar.FilepathGlob(s.pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: bad pattern %q: %v", dataflow.ErrSourceUnavailable, s.pattern, err)
	}

	var files []string
	for _, name := range matches {
		info, err := os.Lstat(name)
		if err != nil {
			continue
		}
		if info.Mode().IsRegular() {
			files = append(files, name)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files match %q", dataflow.ErrSourceUnavailable, s.pattern)
	}
	slices.Sort(files)

	splits := make([]dataflow.Split, len(files))
	for i, file := range files {
		splits[i] = dataflow.Split{ID: i, Path: file}
	}
	return splits, nil
}

func (s *Source) Open(split dataflow.Split) (dataflow.RecordReader, error) {
	file, err := os.Open(split.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dataflow.ErrSourceUnavailable, err)
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, scannerBufferSize), scannerBufferSize)

	return &lineReader{path: split.Path, file: file, scanner: scanner}, nil
}

type lineReader struct {
	path    string
	file    *os.File
	scanner *bufio.Scanner
	line    int
}

func (r *lineReader) Next() (dataflow.Record, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return dataflow.Record{}, err
		}
		return dataflow.Record{}, io.EOF
	}
	r.line++
	return dataflow.Record{
		Origin: fmt.Sprintf("%s:%d", r.path, r.line),
		Data:   r.scanner.Text(),
	}, nil
}

func (r *lineReader) Close() error {
	return r.file.Close()
}
