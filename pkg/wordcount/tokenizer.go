package wordcount

import (
	"strings"

	"github.com/wordflow/wordflow/pkg/dataflow"
)

// TokenizerName is the registered processor name for the tokenizer stage.
const TokenizerName = "tokenizer"

func init() {
	dataflow.RegisterRecordProcessor(TokenizerName, Tokenizer{})
}

// Tokenizer emits one (token, "1") pair per whitespace-delimited token of a
// record. Tokens are emitted exactly as they appear: no case folding, no
// punctuation stripping, no token dropped.
type Tokenizer struct{}

func (Tokenizer) Process(record dataflow.Record, out dataflow.Writer) error {
	for word := range strings.FieldsSeq(record.Data) {
		if err := out.Write(dataflow.KeyValue{Key: word, Value: "1"}); err != nil {
			return err
		}
	}
	return nil
}
