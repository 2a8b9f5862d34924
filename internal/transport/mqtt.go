// Package transport obaluje paho MQTT klienta: připojení, odběr a publikaci.
package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// ErrPublishTimeout vrací Publish, když broker nepotvrdí zprávu včas.
var ErrPublishTimeout = errors.New("mqtt publish timed out")

// Options popisuje připojení k brokeru.
type Options struct {
	Broker   string
	ClientID string
	Username string
	Password string
	QoS      byte
	// PublishTimeout omezuje čekání na token. Volající na něm nesmí viset věčně.
	PublishTimeout time.Duration
}

// MessageHandler dostane každou zprávu z odebíraných topiců.
type MessageHandler func(topic string, payload []byte)

// Client je tenká vrstva nad mqtt.Client.
type Client struct {
	client mqtt.Client
	opts   Options
	logger *slog.Logger

	mu      sync.Mutex // chrání topics a handler, onConnect běží v jiné goroutině
	topics  []string
	handler MessageHandler
}

// NewClient připraví klienta. Nic neodebírá, to dělá až Listen.
func NewClient(opts Options, logger *slog.Logger) *Client {
	c := &Client{opts: opts, logger: logger}

	mo := mqtt.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		// Zprávy doručuje jedna goroutina v pořadí příchodu.
		SetOrderMatters(true).
		SetOnConnectHandler(c.onConnect).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			c.logger.Warn("Spojení s MQTT ztraceno", "error", err)
		})
	if opts.Username != "" {
		mo.SetUsername(opts.Username)
		mo.SetPassword(opts.Password)
	}

	c.client = mqtt.NewClient(mo)
	return c
}

// newWithClient se používá v testech s podvrženým mqtt.Client.
func newWithClient(client mqtt.Client, opts Options, logger *slog.Logger) *Client {
	return &Client{client: client, opts: opts, logger: logger}
}

// Connect blokuje, dokud se klient nepřipojí nebo neselže.
func (c *Client) Connect() error {
	token := c.client.Connect()
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT connect %s: %w", c.opts.Broker, token.Error())
	}
	return nil
}

// Raw vrátí paho klienta (pro MQTT log writer).
func (c *Client) Raw() mqtt.Client {
	return c.client
}

// Listen začne odebírat topics. Odběr se obnoví po každém reconnectu,
// takže výpadek brokeru nevyžaduje restart služby.
func (c *Client) Listen(topics []string, handler MessageHandler) error {
	c.mu.Lock()
	c.topics = topics
	c.handler = handler
	c.mu.Unlock()

	return c.subscribeAll(c.client)
}

func (c *Client) onConnect(client mqtt.Client) {
	c.logger.Info("Připojeno k MQTT", "broker", c.opts.Broker)
	// onConnect běží v goroutině paho, čekání na token tady nic neblokuje.
	if err := c.subscribeAll(client); err != nil {
		c.logger.Error("Subscribe selhal", "error", err)
	}
}

func (c *Client) subscribeAll(client mqtt.Client) error {
	c.mu.Lock()
	topics, handler := c.topics, c.handler
	c.mu.Unlock()
	if len(topics) == 0 {
		return nil
	}

	filters := make(map[string]byte, len(topics))
	for _, t := range topics {
		filters[t] = c.opts.QoS
	}
	token := client.SubscribeMultiple(filters, func(_ mqtt.Client, msg mqtt.Message) {
		handler(msg.Topic(), msg.Payload())
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe %v: %w", topics, token.Error())
	}
	c.logger.Info("Poslouchám na topicích", "topics", topics)
	return nil
}

// Subscribe přidá jeden odběr navíc (např. odpovědi v CLI). Po reconnectu se neobnoví.
func (c *Client) Subscribe(topic string, handler MessageHandler) error {
	token := c.client.Subscribe(topic, c.opts.QoS, func(_ mqtt.Client, msg mqtt.Message) {
		handler(msg.Topic(), msg.Payload())
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", topic, token.Error())
	}
	return nil
}

// Publish pošle zprávu a počká na potvrzení, nejdéle PublishTimeout nebo do konce ctx.
func (c *Client) Publish(ctx context.Context, topic string, payload []byte) error {
	token := c.client.Publish(topic, c.opts.QoS, false, payload)

	timeout := c.opts.PublishTimeout
	if deadline, ok := ctx.Deadline(); ok {
		left := time.Until(deadline)
		if left <= 0 {
			return fmt.Errorf("publish %s: %w", topic, context.DeadlineExceeded)
		}
		if timeout <= 0 || left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 {
		token.Wait()
	} else if !token.WaitTimeout(timeout) {
		return fmt.Errorf("%w: topic %s", ErrPublishTimeout, topic)
	}

	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// detachedAckTimeout omezuje čekání na potvrzení, když PublishTimeout není nastavený.
const detachedAckTimeout = 30 * time.Second

// DetachedPublisher publikuje z callbacku zprávy. Při SetOrderMatters(true)
// běží callback v goroutině, která zpracovává i PUBACK, takže tam na token
// u QoS>0 čekat nelze. Výsledek se jen zaloguje.
type DetachedPublisher struct {
	c *Client
}

// Detached vrátí publisher bez čekání na potvrzení brokera.
func (c *Client) Detached() DetachedPublisher {
	return DetachedPublisher{c: c}
}

// Publish u QoS 0 čeká jako Client.Publish, u QoS>0 vrací hned po předání zprávy paho.
func (d DetachedPublisher) Publish(ctx context.Context, topic string, payload []byte) error {
	c := d.c
	if c.opts.QoS == 0 {
		return c.Publish(ctx, topic, payload)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}

	token := c.client.Publish(topic, c.opts.QoS, false, payload)
	timeout := c.opts.PublishTimeout
	if timeout <= 0 {
		timeout = detachedAckTimeout
	}
	go func() {
		if !token.WaitTimeout(timeout) {
			c.logger.Warn("Broker nepotvrdil zprávu včas", "topic", topic, "timeout", timeout)
			return
		}
		if err := token.Error(); err != nil {
			c.logger.Error("Chyba při publikaci", "topic", topic, "error", err)
		}
	}()
	return nil
}

// Disconnect odpojí klienta, na dokončení práce čeká 250 ms.
func (c *Client) Disconnect() {
	c.client.Disconnect(250)
}
