package textio

import "github.com/wordflow/wordflow/pkg/dataflow"

// TypeName is the registered source and sink type for line-oriented text
// files on the local filesystem.
const TypeName = "textfile"

func init() {
	dataflow.RegisterSource(TypeName, func(path string) (dataflow.Source, error) {
		return NewSource(path), nil
	})
	dataflow.RegisterSink(TypeName, func(path string) (dataflow.Sink, error) {
		return NewSink(path)
	})
}
