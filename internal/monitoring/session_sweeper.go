package monitoring

import (
	"context"
	"time"

	"github.com/isdelr/taskmanager/internal/metrics"
	"github.com/isdelr/taskmanager/internal/services"
	"github.com/isdelr/taskmanager/internal/session"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// SessionSweeper periodically purges expired and revoked sessions and tells
// open pages about the ones that expired.
type SessionSweeper struct {
	store    services.SessionStore
	broker   *session.Broker
	schedule string
	cron     *cron.Cron
	now      func() time.Time
}

// NewSessionSweeper creates a sweeper running on the given cron schedule.
func NewSessionSweeper(store services.SessionStore, broker *session.Broker, schedule string) *SessionSweeper {
	return &SessionSweeper{
		store:    store,
		broker:   broker,
		schedule: schedule,
		cron:     cron.New(),
		now:      time.Now,
	}
}

// Start registers the sweep job and starts the cron runner.
func (s *SessionSweeper) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, func() { s.Sweep(context.Background()) }); err != nil {
		return err
	}
	log.Info().Str("schedule", s.schedule).Msg("Starting session sweeper")
	s.cron.Start()
	return nil
}

// Stop halts the cron runner and waits for a running sweep to finish.
func (s *SessionSweeper) Stop() {
	<-s.cron.Stop().Done()
	log.Info().Msg("Stopped session sweeper")
}

// Sweep runs one purge pass and returns the number of expired sessions.
func (s *SessionSweeper) Sweep(ctx context.Context) int {
	now := s.now()
	expired, err := s.store.PurgeExpired(ctx, now)
	if err != nil {
		log.Error().Err(err).Msg("Session sweep failed")
		return 0
	}

	for _, sess := range expired {
		if s.broker != nil {
			s.broker.Publish(session.Event{
				Type:      session.EventExpired,
				UserID:    sess.UserID,
				SessionID: sess.ID,
				At:        now,
			})
		}
	}
	if len(expired) > 0 {
		metrics.SessionsExpired.Add(float64(len(expired)))
		log.Info().Int("expired", len(expired)).Msg("Purged expired sessions")
	}
	return len(expired)
}
