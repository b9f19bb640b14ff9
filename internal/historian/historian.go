// internal/historian/historian.go
package historian

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/habermas/internal/models"
	"github.com/sirupsen/logrus"
)

// Source yields journaled records. Pop returns ok=false when nothing arrived within timeout.
type Source interface {
	Pop(ctx context.Context, timeout time.Duration) (rec models.ActionRecord, ok bool, err error)
}

// Sink persists records.
type Sink interface {
	WriteBatch(ctx context.Context, recs []models.ActionRecord) error
	MarkAbandoned(ctx context.Context, lobbyID uuid.UUID) (bool, error)
}

// Config tunes batching and the inactivity sweep.
type Config struct {
	BatchSize     int
	FlushDelay    time.Duration
	PollTimeout   time.Duration
	Inactivity    time.Duration
	SweepInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = 20
	}
	if c.FlushDelay <= 0 {
		c.FlushDelay = 500 * time.Millisecond
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = time.Second
	}
	if c.Inactivity <= 0 {
		c.Inactivity = 10 * time.Minute
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = time.Minute
	}
	return c
}

// Service drains a Source into a Sink in batches and marks lobbies abandoned once
// they have been quiet for longer than Config.Inactivity.
type Service struct {
	source Source
	sink   Sink
	cfg    Config
	logger *logrus.Logger
	now    func() time.Time

	batch        []models.ActionRecord
	lastFlush    time.Time
	lastSweep    time.Time
	lastActivity map[uuid.UUID]time.Time
}

func NewService(source Source, sink Sink, cfg Config, logger *logrus.Logger) *Service {
	cfg = cfg.withDefaults()
	return &Service{
		source:       source,
		sink:         sink,
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
		batch:        make([]models.ActionRecord, 0, cfg.BatchSize),
		lastActivity: make(map[uuid.UUID]time.Time),
	}
}

// Run consumes until ctx is cancelled, then flushes what is left.
func (s *Service) Run(ctx context.Context) {
	s.lastFlush = s.now()
	s.lastSweep = s.now()
	s.logger.Info("historian started")

	for ctx.Err() == nil {
		rec, ok, err := s.source.Pop(ctx, s.cfg.PollTimeout)
		switch {
		case err != nil && ctx.Err() == nil:
			s.logger.WithError(err).Error("failed to read action queue")
			// Pop failed without waiting, so back off before the next read.
			select {
			case <-ctx.Done():
			case <-time.After(s.cfg.PollTimeout):
			}
		case ok:
			s.track(rec)
			s.batch = append(s.batch, rec)
		}

		if len(s.batch) >= s.cfg.BatchSize || s.now().Sub(s.lastFlush) >= s.cfg.FlushDelay {
			s.flush(ctx)
		}
		if s.now().Sub(s.lastSweep) >= s.cfg.SweepInterval {
			s.sweep(ctx)
		}
	}

	s.flush(context.Background())
	s.logger.Info("historian shutting down")
}

// track remembers when each lobby was last active. Finished lobbies are forgotten.
func (s *Service) track(rec models.ActionRecord) {
	if rec.Status == models.StatusFinished {
		delete(s.lastActivity, rec.LobbyID)
		return
	}
	s.lastActivity[rec.LobbyID] = s.now()
}

// flush writes the pending batch in one call. A failed batch is kept and retried on the
// next flush.
func (s *Service) flush(ctx context.Context) {
	s.lastFlush = s.now()
	if len(s.batch) == 0 {
		return
	}
	if err := s.sink.WriteBatch(ctx, s.batch); err != nil {
		s.logger.WithError(err).WithField("pending", len(s.batch)).Error("failed to flush actions")
		return
	}
	s.logger.Debugf("Flushed %d actions to DB.", len(s.batch))
	s.batch = make([]models.ActionRecord, 0, s.cfg.BatchSize)
}

func (s *Service) sweep(ctx context.Context) {
	now := s.now()
	s.lastSweep = now
	for id, last := range s.lastActivity {
		if now.Sub(last) <= s.cfg.Inactivity {
			continue
		}
		changed, err := s.sink.MarkAbandoned(ctx, id)
		if err != nil {
			s.logger.WithError(err).WithField("lobby_id", id).Warn("failed to mark lobby abandoned")
			continue
		}
		delete(s.lastActivity, id)
		if changed {
			s.logger.WithField("lobby_id", id).Info("Marked lobby abandoned due to inactivity")
		}
	}
}
