// internal/lobby/journal.go
package lobby

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jason-s-yu/habermas/internal/models"
	"github.com/sirupsen/logrus"
)

var (
	ErrJournalFull   = errors.New("journal queue full")
	ErrJournalClosed = errors.New("journal closed")
)

const (
	defaultJournalBuffer  = 1024
	defaultJournalTimeout = 2 * time.Second
)

// Journal receives one record per applied event, in the order the events were applied.
type Journal interface {
	Record(ctx context.Context, rec models.ActionRecord) error
}

// NopJournal drops every record. It is used when no queue is configured.
type NopJournal struct{}

func (NopJournal) Record(context.Context, models.ActionRecord) error { return nil }

// AsyncJournal queues records and a single goroutine forwards them to the wrapped journal,
// so Record never waits on the network. Order is kept; records are dropped when the queue is full.
type AsyncJournal struct {
	next    Journal
	timeout time.Duration
	logger  *logrus.Logger

	mu     sync.Mutex
	closed bool
	queue  chan models.ActionRecord
	done   chan struct{}
}

// NewAsyncJournal starts the forwarding goroutine. Each forwarded record gets its own timeout.
func NewAsyncJournal(next Journal, buffer int, timeout time.Duration, logger *logrus.Logger) *AsyncJournal {
	if buffer <= 0 {
		buffer = defaultJournalBuffer
	}
	if timeout <= 0 {
		timeout = defaultJournalTimeout
	}
	j := &AsyncJournal{
		next:    next,
		timeout: timeout,
		logger:  logger,
		queue:   make(chan models.ActionRecord, buffer),
		done:    make(chan struct{}),
	}
	go j.run()
	return j
}

// Record enqueues rec without blocking.
func (j *AsyncJournal) Record(_ context.Context, rec models.ActionRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return ErrJournalClosed
	}
	select {
	case j.queue <- rec:
		return nil
	default:
		return ErrJournalFull
	}
}

func (j *AsyncJournal) run() {
	defer close(j.done)
	for rec := range j.queue {
		ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
		if err := j.next.Record(ctx, rec); err != nil {
			j.logger.WithError(err).WithFields(logrus.Fields{
				"lobby_id":     rec.LobbyID,
				"action_index": rec.ActionIndex,
			}).Warn("Failed to journal lobby action")
		}
		cancel()
	}
}

// Close stops accepting records and waits until the queued ones were forwarded.
func (j *AsyncJournal) Close() {
	j.mu.Lock()
	if j.closed {
		j.mu.Unlock()
		<-j.done
		return
	}
	j.closed = true
	close(j.queue)
	j.mu.Unlock()
	<-j.done
}
