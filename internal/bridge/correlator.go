package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrDuplicateRequestID vrací Expect, pokud na stejné id už někdo čeká.
var ErrDuplicateRequestID = errors.New("request id already pending")

// Response je odpověď dekódovaná na straně tazatele.
// Found odpověď má Temperature, NotFound má Error.
type Response struct {
	RequestID   string   `json:"request_id"`
	Timestamp   any      `json:"timestamp"`
	Temperature *float64 `json:"temperature,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// Found říká, jestli odpověď nese měření.
func (r Response) Found() bool {
	return r.Error == "" && r.Temperature != nil
}

// lookupRequestPayload je drátový formát requestu.
type lookupRequestPayload struct {
	Action    string `json:"action"`
	Timestamp int64  `json:"timestamp"`
	RequestID string `json:"request_id"`
}

// EncodeLookupRequest vytvoří payload pro request topic.
func EncodeLookupRequest(ts int64, requestID string) ([]byte, error) {
	return json.Marshal(lookupRequestPayload{
		Action:    ActionGetMeasurement,
		Timestamp: ts,
		RequestID: requestID,
	})
}

// EncodeMeasurement vytvoří payload pro měřicí topic.
func EncodeMeasurement(m Measurement) ([]byte, error) {
	return json.Marshal(m)
}

// Correlator páruje asynchronní odpovědi s čekajícími requesty podle request_id.
// Je bezpečný pro souběžné volání.
type Correlator struct {
	mu      sync.Mutex
	pending map[string]chan Response
}

func NewCorrelator() *Correlator {
	return &Correlator{pending: make(map[string]chan Response)}
}

// Expect zaregistruje id. Volat PŘED publikací requestu, jinak může
// odpověď přijít dřív, než na ni někdo čeká.
func (c *Correlator) Expect(requestID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.pending[requestID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateRequestID, requestID)
	}
	c.pending[requestID] = make(chan Response, 1)
	return nil
}

// Deliver předá odpověď čekateli. Vrací false pro neplatný payload
// nebo neznámé id.
func (c *Correlator) Deliver(payload []byte) bool {
	var resp Response
	if err := json.Unmarshal(payload, &resp); err != nil || resp.RequestID == "" {
		return false
	}

	c.mu.Lock()
	ch, ok := c.pending[resp.RequestID]
	c.mu.Unlock()
	if !ok {
		return false
	}

	// Kanál má kapacitu 1, druhá odpověď na stejné id se zahodí.
	select {
	case ch <- resp:
		return true
	default:
		return false
	}
}

// Await čeká na odpověď k id zaregistrovanému přes Expect.
func (c *Correlator) Await(ctx context.Context, requestID string) (Response, error) {
	c.mu.Lock()
	ch, ok := c.pending[requestID]
	c.mu.Unlock()
	if !ok {
		return Response{}, fmt.Errorf("request id %s is not pending", requestID)
	}

	select {
	case resp := <-ch:
		c.Cancel(requestID)
		return resp, nil
	case <-ctx.Done():
		c.Cancel(requestID)
		return Response{}, ctx.Err()
	}
}

// Cancel zruší čekání na id.
func (c *Correlator) Cancel(requestID string) {
	c.mu.Lock()
	delete(c.pending, requestID)
	c.mu.Unlock()
}

// Pending vrací počet čekajících requestů.
func (c *Correlator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
