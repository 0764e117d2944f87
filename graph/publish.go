// Package graph publishes pipeline output to the knowledge graph over NATS.
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/c360studio/semcode/export"
	"github.com/c360studio/semcode/vocabulary/mcal"
	"github.com/c360studio/semstreams/message"
)

// GraphIngestSubject is the default subject for graph ingestion.
const GraphIngestSubject = "graph.ingest.entity"

// StreamPublisher publishes to a JetStream subject. *natsclient.Client
// satisfies it.
type StreamPublisher interface {
	PublishToStream(ctx context.Context, subject string, data []byte) error
}

// Publisher is an export.Sink that sends one ingest message per subject.
type Publisher struct {
	client  StreamPublisher
	subject string
	source  string
	logger  *slog.Logger
	now     func() time.Time

	published atomic.Int64
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithSubject overrides the ingest subject.
func WithSubject(subject string) Option {
	return func(p *Publisher) {
		if subject != "" {
			p.subject = subject
		}
	}
}

// WithSource sets the provenance recorded on every triple.
func WithSource(source string) Option {
	return func(p *Publisher) { p.source = source }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithClock sets the time source for triple timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Publisher) { p.now = now }
}

// NewPublisher creates a publisher on client.
func NewPublisher(client StreamPublisher, opts ...Option) *Publisher {
	p := &Publisher{
		client:  client,
		subject: GraphIngestSubject,
		source:  "semcode",
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Published returns the number of entity messages sent.
func (p *Publisher) Published() int64 {
	return p.published.Load()
}

// Write implements export.Sink.
func (p *Publisher) Write(ctx context.Context, triples []export.Triple) error {
	if p.client == nil {
		return nil // Skip publishing if no NATS client (graceful degradation)
	}

	payloads, err := BuildPayloads(triples, p.source, p.now())
	if err != nil {
		return err
	}

	for _, payload := range payloads {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal entity %s: %w", payload.ID, err)
		}
		if err := p.client.PublishToStream(ctx, p.subject, data); err != nil {
			return fmt.Errorf("publish entity %s: %w", payload.ID, err)
		}
		p.published.Add(1)
		p.logger.Debug("Published entity", "id", payload.ID, "triples", len(payload.TripleData))
	}
	return nil
}

// BuildPayloads groups triples by subject, in first-seen order, into ingest
// payloads. Each entity also records the IRI it was minted from.
func BuildPayloads(triples []export.Triple, source string, now time.Time) ([]*EntityPayload, error) {
	var payloads []*EntityPayload
	index := make(map[string]*EntityPayload)

	for _, t := range triples {
		object, err := objectValue(t.Object)
		if err != nil {
			return nil, fmt.Errorf("triple %s %s: %w", t.Subject, t.Predicate, err)
		}

		id := EntityID(t.Subject)
		payload, ok := index[t.Subject]
		if !ok {
			payload = &EntityPayload{ID: id, UpdatedAt: now}
			payload.TripleData = append(payload.TripleData, message.Triple{
				Subject:    id,
				Predicate:  mcal.ResourceIRI,
				Object:     t.Subject,
				Source:     source,
				Timestamp:  now,
				Confidence: 1.0,
			})
			index[t.Subject] = payload
			payloads = append(payloads, payload)
		}

		payload.TripleData = append(payload.TripleData, message.Triple{
			Subject:    id,
			Predicate:  mcal.PredicateForIRI(t.Predicate),
			Object:     object,
			Source:     source,
			Timestamp:  now,
			Confidence: 1.0,
		})
	}
	return payloads, nil
}

// objectValue converts a triple object to the value carried in a
// message.Triple. IRI objects become entity IDs.
func objectValue(obj any) (any, error) {
	switch v := obj.(type) {
	case export.IRI:
		return EntityID(string(v)), nil
	case export.Literal:
		switch v.Datatype {
		case mcal.XSDInteger:
			if n, err := strconv.ParseInt(v.Value, 10, 64); err == nil {
				return n, nil
			}
		case mcal.XSDBoolean:
			if b, err := strconv.ParseBool(v.Value); err == nil {
				return b, nil
			}
		}
		return v.Value, nil
	case time.Time:
		return v.UTC().Format(time.RFC3339), nil
	case nil:
		return nil, fmt.Errorf("nil object")
	default:
		return v, nil
	}
}
