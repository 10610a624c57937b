package dataflow

import "fmt"

// SourceFactory builds a Source bound to an input location.
type SourceFactory func(path string) (Source, error)

// SinkFactory builds a Sink bound to an output location.
type SinkFactory func(path string) (Sink, error)

var (
	recordProcessors = make(map[string]RecordProcessor)
	groupProcessors  = make(map[string]GroupProcessor)
	sourceFactories  = make(map[string]SourceFactory)
	sinkFactories    = make(map[string]SinkFactory)
)

// Registration happens from init functions of processor packages, before
// any graph is planned, so the registries need no locking.

func RegisterRecordProcessor(name string, processor RecordProcessor) error {
	if _, exists := recordProcessors[name]; exists {
		return fmt.Errorf("record processor already registered: %s", name)
	}
	recordProcessors[name] = processor
	return nil
}

func RegisterGroupProcessor(name string, processor GroupProcessor) error {
	if _, exists := groupProcessors[name]; exists {
		return fmt.Errorf("group processor already registered: %s", name)
	}
	groupProcessors[name] = processor
	return nil
}

func RegisterSource(sourceType string, factory SourceFactory) error {
	if _, exists := sourceFactories[sourceType]; exists {
		return fmt.Errorf("source type already registered: %s", sourceType)
	}
	sourceFactories[sourceType] = factory
	return nil
}

func RegisterSink(sinkType string, factory SinkFactory) error {
	if _, exists := sinkFactories[sinkType]; exists {
		return fmt.Errorf("sink type already registered: %s", sinkType)
	}
	sinkFactories[sinkType] = factory
	return nil
}

func GetRecordProcessor(name string) (RecordProcessor, error) {
	processor, exists := recordProcessors[name]
	if !exists {
		return nil, fmt.Errorf("record processor not found: %s", name)
	}
	return processor, nil
}

func GetGroupProcessor(name string) (GroupProcessor, error) {
	processor, exists := groupProcessors[name]
	if !exists {
		return nil, fmt.Errorf("group processor not found: %s", name)
	}
	return processor, nil
}

// NewSource builds the source a spec describes, dispatching on spec type.
func NewSource(spec SourceSpec) (Source, error) {
	factory, exists := sourceFactories[spec.Type]
	if !exists {
		return nil, fmt.Errorf("source type not registered: %s", spec.Type)
	}
	return factory(spec.Path)
}

// NewSink builds the sink a spec describes, dispatching on spec type.
func NewSink(spec SinkSpec) (Sink, error) {
	factory, exists := sinkFactories[spec.Type]
	if !exists {
		return nil, fmt.Errorf("sink type not registered: %s", spec.Type)
	}
	return factory(spec.Path)
}
