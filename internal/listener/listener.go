// Package listener provides a Postgres LISTEN/NOTIFY consumer for match
// finality events. It holds a dedicated pgx connection (not from the pool)
// listening on the `match_finished` channel.
//
// A trigger on the matches table fires pg_notify whenever a match reaches
// finished status or a finished score changes. The consumer drives the
// standings rollup and prediction settlement for that match, giving write
// paths outside this service (bulk imports, manual SQL corrections) the
// same derived-state guarantees as the HTTP API.
package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/matchdaylabs/matchday/internal/fixture"
)

const (
	channel          = "match_finished"
	reconnectBackoff = 5 * time.Second
	maxReconnect     = 30 * time.Second
)

// MatchEvent is the JSON payload from pg_notify('match_finished', ...).
type MatchEvent struct {
	MatchID   int64  `json:"match_id"`
	LeagueID  int64  `json:"league_id"`
	Reason    string `json:"reason"` // "finished" or "corrected"
	Timestamp int64  `json:"ts"`
}

// Start opens a dedicated connection and listens on the match_finished
// channel. It reconnects automatically on connection loss. Blocks until ctx
// is cancelled. Intended to be called with `go`.
func Start(ctx context.Context, dbURL string, proc *fixture.Processor, logger *slog.Logger) {
	backoff := reconnectBackoff

	for {
		err := listenLoop(ctx, dbURL, proc, logger)
		if ctx.Err() != nil {
			logger.Info("Match listener stopped (context cancelled)")
			return
		}

		logger.Error("Match listener disconnected, reconnecting...",
			"error", err, "backoff", backoff)

		select {
		case <-time.After(backoff):
			backoff = min(backoff*2, maxReconnect)
		case <-ctx.Done():
			return
		}
	}
}

// listenLoop runs a single listen session. Returns when the connection drops
// or the context is cancelled.
func listenLoop(ctx context.Context, dbURL string, proc *fixture.Processor, logger *slog.Logger) error {
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	_, err = conn.Exec(ctx, "LISTEN "+channel)
	if err != nil {
		return fmt.Errorf("LISTEN %s: %w", channel, err)
	}
	logger.Info("Match listener connected", "channel", channel)

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}

		var event MatchEvent
		if err := json.Unmarshal([]byte(notification.Payload), &event); err != nil {
			logger.Warn("Failed to parse match event",
				"payload", notification.Payload, "error", err)
			continue
		}

		logger.Info("Match finality event received",
			"match_id", event.MatchID,
			"league_id", event.LeagueID,
			"reason", event.Reason)

		// Process asynchronously to avoid blocking the listener. The
		// processor's key locks serialize against any concurrent HTTP-driven
		// recompute for the same teams or predictions.
		go func(matchID int64) {
			res := proc.ProcessMatch(ctx, matchID)
			if !res.Success {
				logger.Warn("Match event processing failed",
					"match_id", matchID, "error", res.Error)
				return
			}
			logger.Info("Match event processed", "match_id", matchID, "summary", res.Summary())
		}(event.MatchID)
	}
}
