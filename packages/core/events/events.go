// Package events publishes settlement events after they have been committed.
package events

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"
)

const (
	TypeMatchCreated  = "match.created"
	TypeMatchSettled  = "match.settled"
	TypePlayerDeposit = "player.deposit"
)

type Event struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

type MatchCreated struct {
	MatchID       string `json:"match_id"`
	P1ID          string `json:"p1_id"`
	P2ID          string `json:"p2_id"`
	EntryFeeCents int64  `json:"entry_fee_usd_cents"`
	PrizeCents    int64  `json:"prize_usd_cents"`
}

type MatchSettled struct {
	MatchID      string `json:"match_id"`
	WinnerID     string `json:"winner_id"`
	PrizeCents   int64  `json:"prize_usd_cents"`
	Disqualified bool   `json:"disqualified"`
}

type PlayerDeposit struct {
	PlayerID        string `json:"player_id"`
	AmountCents     int64  `json:"amount_usd_cents"`
	NewBalanceCents int64  `json:"new_balance_usd_cents"`
}

// Publisher delivers an event keyed by the entity it concerns.
type Publisher interface {
	Publish(ctx context.Context, key string, event Event) error
	Close() error
}

// LogPublisher writes events to the standard logger. It is used when no
// broker is configured.
type LogPublisher struct{}

func NewLogPublisher() *LogPublisher {
	return &LogPublisher{}
}

func (p *LogPublisher) Publish(ctx context.Context, key string, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	log.Printf("event %s key=%s %s", event.Type, key, data)
	return nil
}

func (p *LogPublisher) Close() error { return nil }

// Recorder keeps published events in memory for tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(ctx context.Context, key string, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *Recorder) Close() error { return nil }

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfType returns the recorded events of one type, in publish order.
func (r *Recorder) OfType(eventType string) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
