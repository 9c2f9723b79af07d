// Package progress implements the Progress Stream + Status Store: a
// push channel that lets clients observe partial completion of a
// search-triggered crawl, plus a legacy poll-once snapshot.
package progress

import (
	"context"
	"time"

	"hybridnews/internal/domain/entity"
	"hybridnews/internal/repository"
)

// PollInterval is how often the stream re-checks the session/article state
// between polls of the status store.
const PollInterval = 2 * time.Second

// Snapshot is the observable state of a SearchSession at a point in time.
type Snapshot struct {
	SearchID   string
	Status     entity.SearchSessionStatus
	TotalSaved int
	UpdatedAt  time.Time
}

func (s Snapshot) equalForEmission(o Snapshot) bool {
	return s.TotalSaved == o.TotalSaved && s.Status == o.Status
}

// Stream is the Progress Stream + Status Store component.
type Stream struct {
	Sessions repository.SearchSessionRepository
	Articles repository.ArticleRepository
}

// NewStream builds a Progress Stream over the document store.
func NewStream(sessions repository.SearchSessionRepository, articles repository.ArticleRepository) *Stream {
	return &Stream{Sessions: sessions, Articles: articles}
}

// Snapshot reads the current (status, total_saved, updated_at) for a
// search_id, backing the legacy poll-once endpoint.
func (s *Stream) Snapshot(ctx context.Context, searchID string) (Snapshot, error) {
	session, err := s.Sessions.Get(ctx, searchID)
	if err != nil {
		return Snapshot{}, err
	}
	if session == nil {
		return Snapshot{}, nil
	}
	count, err := s.Articles.CountBySearchID(ctx, searchID)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		SearchID:   searchID,
		Status:     session.Status,
		TotalSaved: int(count),
		UpdatedAt:  session.UpdatedAt,
	}, nil
}

// Event is one push frame: Update carries a (status, total_saved) change;
// End carries the final count and signals the subscriber to stop reading.
type Event struct {
	Type       string // "update" | "end"
	SearchID   string
	Status     entity.SearchSessionStatus
	TotalSaved int
	Timestamp  time.Time
	FinalCount int
}

// Subscribe drives the push loop for a single subscriber: on
// subscription it emits the current snapshot if one exists, then polls
// every PollInterval, emitting an "update" event whenever (count, status)
// changes, and a final "end" event (with FinalCount) once the session is
// completed. It returns when the session completes, ctx is cancelled (the
// client disconnected), or an error occurs reading the document store.
func (s *Stream) Subscribe(ctx context.Context, searchID string, emit func(Event) error) error {
	var last Snapshot
	haveLast := false

	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	check := func() (done bool, err error) {
		snap, err := s.Snapshot(ctx, searchID)
		if err != nil {
			return false, err
		}
		if snap.SearchID == "" {
			// Session not yet visible in the document store; keep polling.
			return false, nil
		}
		if haveLast && last.equalForEmission(snap) {
			return snap.Status == entity.SearchStatusCompleted, nil
		}
		last = snap
		haveLast = true

		// The completed state is pushed as a regular update first, so the
		// subscriber observes the final (status, count) payload; the
		// terminal end frame follows in the same iteration.
		if err := emit(Event{Type: "update", SearchID: searchID, Status: snap.Status, TotalSaved: snap.TotalSaved, Timestamp: time.Now()}); err != nil {
			return true, err
		}
		if snap.Status == entity.SearchStatusCompleted {
			if err := emit(Event{Type: "end", SearchID: searchID, FinalCount: snap.TotalSaved, Timestamp: time.Now()}); err != nil {
				return true, err
			}
			return true, nil
		}
		return false, nil
	}

	if done, err := check(); err != nil || done {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			done, err := check()
			if err != nil {
				return err
			}
			if done {
				return nil
			}
		}
	}
}
