package bridge

import (
	"errors"
	"fmt"
	"unicode/utf8"

	jsoniter "github.com/json-iterator/go"
)

// json: UseNumber zachová celá čísla (timestamp) bez převodu přes float64.
var json = jsoniter.Config{
	EscapeHTML:             true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

// ParseOutcome je výsledek dekódování payloadu.
type ParseOutcome int

const (
	PayloadValid ParseOutcome = iota
	PayloadEmpty
	PayloadInvalid
)

func (o ParseOutcome) String() string {
	switch o {
	case PayloadValid:
		return "valid"
	case PayloadEmpty:
		return "empty"
	case PayloadInvalid:
		return "invalid"
	default:
		return fmt.Sprintf("ParseOutcome(%d)", int(o))
	}
}

var (
	errNotUTF8     = errors.New("payload is not valid UTF-8")
	errNotAnObject = errors.New("payload is not a JSON object")
)

// ParseResult nese buď pole zprávy (PayloadValid), nebo důvod odmítnutí.
type ParseResult struct {
	Outcome ParseOutcome
	Fields  map[string]any
	Reason  error
}

// ParsePayload dekóduje MQTT payload na JSON objekt.
// Nikdy nepanikaří: každá chyba skončí jako PayloadInvalid s důvodem.
func ParsePayload(payload []byte) ParseResult {
	if len(payload) == 0 {
		return ParseResult{Outcome: PayloadEmpty}
	}
	if !utf8.Valid(payload) {
		return ParseResult{Outcome: PayloadInvalid, Reason: errNotUTF8}
	}

	var raw any
	if err := json.Unmarshal(payload, &raw); err != nil {
		return ParseResult{Outcome: PayloadInvalid, Reason: fmt.Errorf("decode JSON: %w", err)}
	}
	fields, ok := raw.(map[string]any)
	if !ok {
		return ParseResult{Outcome: PayloadInvalid, Reason: errNotAnObject}
	}
	return ParseResult{Outcome: PayloadValid, Fields: fields}
}
