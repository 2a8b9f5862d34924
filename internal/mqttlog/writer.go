// Package mqttlog posílá logy služby do MQTT, kde je sbírá centrální log collector.
package mqttlog

import (
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// publisher je jediná metoda mqtt.Client, kterou potřebujeme.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Writer implementuje rozhraní io.Writer.
// Vše, co se do něj zapíše, se odešle do MQTT na topic "logs/<služba>".
type Writer struct {
	client publisher
	topic  string
}

// NewWriter vytvoří writer pro danou službu.
func NewWriter(client publisher, serviceName string) *Writer {
	return &Writer{
		client: client,
		topic:  fmt.Sprintf("logs/%s", serviceName),
	}
}

// Topic vrátí cílový topic.
func (w *Writer) Topic() string {
	return w.topic
}

// Write volá slog pro každý záznam. Na token nečekáme (fire-and-forget),
// logování nesmí zdržovat zpracování zpráv.
func (w *Writer) Write(p []byte) (int, error) {
	// slog buffer znovu použije, payload proto kopírujeme.
	payload := make([]byte, len(p))
	copy(payload, p)

	w.client.Publish(w.topic, 0, false, payload)
	return len(p), nil
}
