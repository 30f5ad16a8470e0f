// repository/events/eventSink.go
//
// Sinks for ledger events. The rental engine emits and moves on; sinks
// absorb failures themselves and never propagate them back into the core.
package eventsink

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/drstrox/Decentralised-Book-Rental-System/model"
)

// PG persists events to the ledger_events table for external indexers.
//
//	CREATE TABLE ledger_events (
//	    id         uuid PRIMARY KEY,
//	    kind       text NOT NULL,
//	    payload    jsonb NOT NULL,
//	    emitted_at timestamptz NOT NULL DEFAULT now()
//	);
type PG struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewPG(pool *pgxpool.Pool, log *slog.Logger) *PG {
	return &PG{pool: pool, log: log}
}

func (s *PG) Emit(ev model.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		s.log.Error("event marshal failed", "kind", ev.Kind(), "err", err)
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		const q = `INSERT INTO ledger_events (id, kind, payload) VALUES ($1,$2,$3)`
		if _, err := s.pool.Exec(ctx, q, uuid.NewString(), ev.Kind(), payload); err != nil {
			s.log.Error("event insert failed", "kind", ev.Kind(), "err", err)
		}
	}()
}

// Log writes events to the structured log. Used when no DATABASE_URL is
// configured.
type Log struct{ log *slog.Logger }

func NewLog(log *slog.Logger) *Log { return &Log{log: log} }

func (s *Log) Emit(ev model.Event) {
	payload, _ := json.Marshal(ev)
	s.log.Info("ledger event", "kind", ev.Kind(), "payload", string(payload))
}
