package mqttlog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_AppendsPerService(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "iot-app")
	c, err := NewCollector(dir)
	require.NoError(t, err)

	require.NoError(t, c.Append("logs/measurement-bridge", []byte(`{"msg":"a"}`)))
	require.NoError(t, c.Append("logs/measurement-bridge", []byte("{\"msg\":\"b\"}\n")))
	require.NoError(t, c.Append("logs/sensor/info", []byte(`{"msg":"c"}`)))

	data, err := os.ReadFile(filepath.Join(dir, "measurement-bridge.log"))
	require.NoError(t, err)
	assert.Equal(t, "{\"msg\":\"a\"}\n{\"msg\":\"b\"}\n", string(data))

	data, err = os.ReadFile(filepath.Join(dir, "sensor.log"))
	require.NoError(t, err)
	assert.Equal(t, "{\"msg\":\"c\"}\n", string(data))
}

func TestCollector_RejectsBadTopics(t *testing.T) {
	c, err := NewCollector(t.TempDir())
	require.NoError(t, err)

	for _, topic := range []string{"logs", "logs/", "logs/..", "logs/."} {
		assert.ErrorIs(t, c.Append(topic, []byte("x")), ErrBadLogTopic, topic)
	}
}
