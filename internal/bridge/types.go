package bridge

import "time"

// Measurement je jedno měření ze senzoru.
type Measurement struct {
	Timestamp   int64   `json:"timestamp"` // epoch sekundy
	Temperature float64 `json:"temperature"`
}

// Time vrátí čas měření v UTC.
func (m Measurement) Time() time.Time {
	return time.Unix(m.Timestamp, 0).UTC()
}

// ActionGetMeasurement je jediná podporovaná akce v requestu.
const ActionGetMeasurement = "get_measurement"

// ErrMeasurementNotFound je text chyby v NotFound odpovědi.
const ErrMeasurementNotFound = "Measurement not found"

// LookupRequest je validní dotaz na měření.
type LookupRequest struct {
	Action    string
	Timestamp int64
	RequestID string
}

// FoundResponse se posílá, když měření existuje.
type FoundResponse struct {
	RequestID   string  `json:"request_id"`
	Timestamp   int64   `json:"timestamp"`
	Temperature float64 `json:"temperature"`
}

// NotFoundResponse se posílá, když měření neexistuje nebo dotaz selhal.
// Timestamp je hodnota z requestu beze změny (může to být i neplatný řetězec).
type NotFoundResponse struct {
	RequestID string `json:"request_id"`
	Error     string `json:"error"`
	Timestamp any    `json:"timestamp"`
}
