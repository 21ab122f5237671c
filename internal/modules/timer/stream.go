package timer

import (
	"context"
	"time"

	"github.com/tracktide/core/internal/models"
	"go.uber.org/zap"
)

// streamState is the per-connection cache of the last fetched register state.
// It is owned by exactly one Serve call; nothing is shared across connections.
type streamState struct {
	active    *models.ActiveSessionModel
	project   *projectSummary
	fetchedAt time.Time
}

// StreamServer renders the active-session register to long-lived push
// connections. Two triggers push state: change notifications (fresh read,
// collapsed within cacheWindow) and a fixed tick that only recomputes elapsed
// time from the cached state without touching the store.
type StreamServer struct {
	active      ActiveSessionRepository
	projects    ProjectRepository
	notifier    *Notifier
	logger      *zap.Logger
	tick        time.Duration
	cacheWindow time.Duration
	now         func() time.Time
}

func NewStreamServer(active ActiveSessionRepository, projects ProjectRepository, notifier *Notifier, logger *zap.Logger, tick, cacheWindow time.Duration) *StreamServer {
	if tick <= 0 {
		tick = time.Second
	}
	if cacheWindow <= 0 {
		cacheWindow = 100 * time.Millisecond
	}
	return &StreamServer{
		active:      active,
		projects:    projects,
		notifier:    notifier,
		logger:      logger.Named("StreamServer"),
		tick:        tick,
		cacheWindow: cacheWindow,
		now:         time.Now,
	}
}

// Serve runs one connection until ctx is cancelled or a push fails. Push
// failures are swallowed: the connection is already going away. Teardown
// always stops the ticker and unsubscribes, whichever side closed first.
func (s *StreamServer) Serve(ctx context.Context, userID string, send func(interface{}) error) error {
	events, cancel := s.notifier.Subscribe(userID)
	defer cancel()

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	// A newly connected client is never stale: force a fresh read and push
	// before entering the loop.
	state, err := s.fetch(userID)
	if err != nil {
		return err
	}
	if err := send(s.render(state)); err != nil {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-events:
			if s.now().Sub(state.fetchedAt) >= s.cacheWindow {
				fresh, err := s.fetch(userID)
				if err != nil {
					s.logger.Warn("fresh read failed, pushing cached state",
						zap.String("user", userID), zap.Error(err))
				} else {
					state = fresh
				}
			}
			if err := send(s.render(state)); err != nil {
				return nil
			}

		case <-ticker.C:
			// Elapsed-only recompute; never re-queries an idle timer.
			if err := send(s.render(state)); err != nil {
				return nil
			}
		}
	}
}

func (s *StreamServer) fetch(userID string) (*streamState, error) {
	active, err := s.active.Get(userID)
	if err != nil {
		return nil, err
	}

	state := &streamState{active: active, fetchedAt: s.now()}
	if active != nil && active.ProjectID != nil {
		p, err := s.projects.GetOwned(userID, *active.ProjectID)
		if err != nil {
			return nil, err
		}
		if p != nil {
			state.project = &projectSummary{ID: p.ID, Name: p.Name, Color: p.Color}
		}
	}
	return state, nil
}

func (s *StreamServer) render(state *streamState) streamPayload {
	if state.active == nil {
		return streamPayload{Active: false, ElapsedSeconds: 0}
	}

	a := state.active
	elapsed := int64(s.now().Sub(a.StartTime) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	start := a.StartTime
	cycle := a.PomodoroCycle
	return streamPayload{
		Active:         true,
		ID:             a.ID,
		StartTime:      &start,
		Mode:           a.Mode,
		Description:    a.Description,
		ProjectID:      a.ProjectID,
		TargetDuration: a.TargetDuration,
		PomodoroPhase:  a.PomodoroPhase,
		PomodoroCycle:  &cycle,
		ElapsedSeconds: elapsed,
		Project:        state.project,
	}
}
