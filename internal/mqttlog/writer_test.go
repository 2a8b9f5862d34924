package mqttlog

import (
	"log/slog"
	"testing"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capture struct {
	topics   []string
	payloads [][]byte
}

func (c *capture) Publish(topic string, _ byte, _ bool, payload interface{}) mqtt.Token {
	c.topics = append(c.topics, topic)
	c.payloads = append(c.payloads, payload.([]byte))
	return nil
}

func TestWriter_PublishesCopy(t *testing.T) {
	c := &capture{}
	w := NewWriter(c, "measurement-bridge")

	buf := []byte(`{"msg":"hello"}`)
	n, err := w.Write(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)

	buf[2] = 'X'
	require.Len(t, c.payloads, 1)
	assert.Equal(t, `{"msg":"hello"}`, string(c.payloads[0]))
	assert.Equal(t, "logs/measurement-bridge", c.topics[0])
}

func TestWriter_AsSlogSink(t *testing.T) {
	c := &capture{}
	logger := slog.New(slog.NewJSONHandler(NewWriter(c, "svc"), nil))

	logger.Info("Měření uloženo", "timestamp", 1000)

	require.Len(t, c.payloads, 1)
	assert.Contains(t, string(c.payloads[0]), `"timestamp":1000`)
	assert.Equal(t, "logs/svc", c.topics[0])
}
