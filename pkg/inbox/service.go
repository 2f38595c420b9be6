package inbox

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/membrane-io/user/pkg/logger"
	"github.com/membrane-io/user/pkg/models"
	"github.com/membrane-io/user/pkg/store"
)

// Notifier delivers a message to the human responder. Implementations may
// fail; the inbox never retries.
type Notifier interface {
	Notify(ctx context.Context, subject, body string) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, subject, body string) error

func (f NotifierFunc) Notify(ctx context.Context, subject, body string) error {
	return f(ctx, subject, body)
}

// ChannelResolver rebuilds the runtime channel of a thread loaded from disk.
// Returning nil keeps a plain key-only channel.
type ChannelResolver func(key, name string) models.Channel

// Options configures a Service.
type Options struct {
	Store    *store.Store
	Notifier Notifier
	Resolver ChannelResolver
	// ServiceName is the sender named in notification subjects.
	ServiceName string
	Now         func() time.Time
}

// Service owns all inbox state: id counters, threads, the global log and
// the pending-question registry. Every mutation happens under mu, and
// notification I/O happens after mu is released.
type Service struct {
	mu sync.Mutex

	st          *store.Store
	notifier    Notifier
	resolve     ChannelResolver
	serviceName string
	now         func() time.Time

	threadIDs  *allocator
	messageIDs *allocator

	threads     map[uint64]*models.Thread
	threadOrder []*models.Thread
	byChannel   map[string]*models.Thread
	log         []models.Message

	pending  map[uint64]*waiter
	orphaned map[uint64]struct{}
	closed   bool
}

// New opens the inbox over st and restores persisted threads and messages.
func New(opts Options) (*Service, error) {
	if opts.Store == nil {
		return nil, errors.New("inbox: store is required")
	}
	s := &Service{
		st:          opts.Store,
		notifier:    opts.Notifier,
		resolve:     opts.Resolver,
		serviceName: opts.ServiceName,
		now:         opts.Now,
		threadIDs:   newAllocator(store.NextThreadIDKey),
		messageIDs:  newAllocator(store.NextMessageIDKey),
		threads:     make(map[uint64]*models.Thread),
		byChannel:   make(map[string]*models.Thread),
		pending:     make(map[uint64]*waiter),
		orphaned:    make(map[uint64]struct{}),
	}
	if s.notifier == nil {
		s.notifier = NotifierFunc(func(context.Context, string, string) error { return nil })
	}
	if s.serviceName == "" {
		s.serviceName = "Membrane"
	}
	if s.now == nil {
		s.now = time.Now
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	logger.Info("inbox_loaded",
		"threads", len(s.threads),
		"messages", len(s.log),
		"orphaned_questions", len(s.orphaned),
		"next_message_id", s.messageIDs.Peek())
	return s, nil
}

// ServiceName is the sender named in notification subjects.
func (s *Service) ServiceName() string { return s.serviceName }

// Close releases every caller still blocked in Ask with ErrClosed. Their
// questions stay unanswered in the log and are reported as orphaned.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, w := range s.pending {
		close(w.gone)
		s.orphaned[id] = struct{}{}
		delete(s.pending, id)
	}
	s.publishGaugesLocked()
	logger.Info("inbox_closed", "orphaned_questions", len(s.orphaned))
}
