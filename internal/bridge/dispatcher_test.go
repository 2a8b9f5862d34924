package bridge

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTopics = Topics{
	Measurements: "esp32/temperature",
	Requests:     "edge/measurement/request",
}

func newTestDispatcher(st *countingStore, pub *recordingPublisher) *Dispatcher {
	logger := discardLogger()
	return NewDispatcher(
		testTopics,
		NewIngester(st, NewDedupState(), logger),
		NewLookup(st, pub, responseTopic, logger),
		logger,
	)
}

func TestDispatcher_EndToEnd(t *testing.T) {
	st := newCountingStore()
	pub := &recordingPublisher{}
	d := newTestDispatcher(st, pub)
	ctx := context.Background()

	d.OnMessage(ctx, testTopics.Measurements, []byte(`{"timestamp":1000,"temperature":21.5}`))
	assert.Equal(t, 1, st.writeCount())

	d.OnMessage(ctx, testTopics.Requests, []byte(`{"action":"get_measurement","timestamp":1000,"request_id":"r1"}`))
	d.OnMessage(ctx, testTopics.Requests, []byte(`{"action":"get_measurement","timestamp":2000,"request_id":"r2"}`))

	msgs := pub.messages()
	require.Len(t, msgs, 2)
	assert.JSONEq(t, `{"request_id":"r1","timestamp":1000,"temperature":21.5}`, string(msgs[0].payload))
	assert.JSONEq(t, `{"request_id":"r2","error":"Measurement not found","timestamp":2000}`, string(msgs[1].payload))
	for _, m := range msgs {
		assert.Equal(t, responseTopic, m.topic)
	}
}

func TestDispatcher_DropsBadPayloads(t *testing.T) {
	st := newCountingStore()
	pub := &recordingPublisher{}
	d := newTestDispatcher(st, pub)
	ctx := context.Background()

	for _, topic := range []string{testTopics.Measurements, testTopics.Requests} {
		d.OnMessage(ctx, topic, nil)
		d.OnMessage(ctx, topic, []byte(`{not json`))
		d.OnMessage(ctx, topic, []byte(`["timestamp",1000]`))
		d.OnMessage(ctx, topic, []byte{0xc3, 0x28})
	}

	assert.Equal(t, 0, st.writeCount())
	assert.Empty(t, pub.messages())
}

func TestDispatcher_UnknownTopic(t *testing.T) {
	st := newCountingStore()
	pub := &recordingPublisher{}
	d := newTestDispatcher(st, pub)

	d.OnMessage(context.Background(), "esp32/humidity", []byte(`{"timestamp":1000,"temperature":21.5}`))
	// Odpovědi, které sami posíláme, se nesmí zpracovat jako request.
	d.OnMessage(context.Background(), responseTopic, []byte(`{"action":"get_measurement","timestamp":1000,"request_id":"r"}`))

	assert.Equal(t, 0, st.writeCount())
	assert.Empty(t, pub.messages())
}

func TestDispatcher_ResponseCorrelation(t *testing.T) {
	st := newCountingStore()
	pub := &recordingPublisher{}
	d := newTestDispatcher(st, pub)
	ctx := context.Background()

	d.OnMessage(ctx, testTopics.Measurements, []byte(`{"timestamp":1000,"temperature":21.5}`))

	const n = 50
	for i := 0; i < n; i++ {
		ts := 1000
		if i%2 == 1 {
			ts = 3000 + i
		}
		d.OnMessage(ctx, testTopics.Requests, []byte(fmt.Sprintf(
			`{"action":"get_measurement","timestamp":%d,"request_id":"req-%d"}`, ts, i)))
	}

	msgs := pub.messages()
	require.Len(t, msgs, n)
	for i, m := range msgs {
		res := ParsePayload(m.payload)
		require.Equal(t, PayloadValid, res.Outcome)
		assert.Equal(t, fmt.Sprintf("req-%d", i), res.Fields["request_id"])
	}
}

func TestDispatcher_SerializesConcurrentDelivery(t *testing.T) {
	st := newCountingStore()
	pub := &recordingPublisher{}
	d := newTestDispatcher(st, pub)
	ctx := context.Background()

	// Stejné měření z mnoha goroutin: díky serializaci projde právě jednou.
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.OnMessage(ctx, testTopics.Measurements, []byte(`{"timestamp":1000,"temperature":21.5}`))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, st.writeCount())
}
