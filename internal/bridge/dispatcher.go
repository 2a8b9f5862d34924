// Package bridge je jádro služby: deduplikace příchozích měření
// a odpovídání na dotazy podle času.
package bridge

import (
	"context"
	"log/slog"
	"sync"
)

// Topics jsou vstupní kanály služby. Topic pro odpovědi zná jen Lookup.
type Topics struct {
	Measurements string // příchozí měření
	Requests     string // příchozí dotazy
}

// Dispatcher je jediný vstupní bod zpráv z transportu.
// Zprávy zpracovává jednu po druhé až do konce (run-to-completion),
// i kdyby je transport doručoval souběžně.
type Dispatcher struct {
	mu       sync.Mutex
	topics   Topics
	ingester *Ingester
	lookup   *Lookup
	logger   *slog.Logger
}

// NewDispatcher propojí handlery s topicy.
func NewDispatcher(topics Topics, ingester *Ingester, lookup *Lookup, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		topics:   topics,
		ingester: ingester,
		lookup:   lookup,
		logger:   logger,
	}
}

// OnMessage zpracuje jednu zprávu. Žádná chyba není fatální:
// špatnou zprávu zalogujeme a zahodíme.
func (d *Dispatcher) OnMessage(ctx context.Context, topic string, payload []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.logger.Debug("Přijata zpráva", "topic", topic, "bytes", len(payload))

	res := ParsePayload(payload)
	switch res.Outcome {
	case PayloadEmpty:
		d.logger.Debug("Prázdný payload, ignoruji", "topic", topic)
		return
	case PayloadInvalid:
		d.logger.Warn("Zpráva odmítnuta", "topic", topic, "důvod", res.Reason)
		return
	}

	switch topic {
	case d.topics.Measurements:
		d.ingester.Handle(ctx, res.Fields)
	case d.topics.Requests:
		d.lookup.Handle(ctx, res.Fields)
	default:
		d.logger.Warn("Neznámý topic, ignoruji", "topic", topic)
	}
}
