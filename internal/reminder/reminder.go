package reminder

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/adhocore/gronx"
	"github.com/dustin/go-humanize"

	"github.com/membrane-io/user/pkg/config"
	"github.com/membrane-io/user/pkg/inbox"
	"github.com/membrane-io/user/pkg/logger"
	"github.com/membrane-io/user/pkg/metrics"
)

// Source lists questions still waiting on the responder.
type Source interface {
	PendingQuestions(minAge time.Duration) []inbox.PendingQuestion
}

// Manager sends a digest of old pending questions on a cron schedule.
type Manager struct {
	cfg         config.ReminderConfig
	src         Source
	notifier    inbox.Notifier
	serviceName string
	now         func() time.Time

	mu      sync.Mutex
	running bool
}

func New(cfg config.ReminderConfig, src Source, n inbox.Notifier, serviceName string) *Manager {
	return &Manager{cfg: cfg, src: src, notifier: n, serviceName: serviceName, now: time.Now}
}

// ServiceName is the sender named in digest subjects.
func (m *Manager) ServiceName() string { return m.serviceName }

// Start runs the schedule loop until the returned cancel is called or ctx
// ends. A disabled reminder returns a no-op cancel.
func (m *Manager) Start(ctx context.Context) context.CancelFunc {
	if !m.cfg.Enabled {
		logger.Info("reminder_disabled")
		return func() {}
	}
	ctx, cancel := context.WithCancel(ctx)
	logger.Info("reminder_enabled", "cron", m.cfg.Cron, "min_age", m.cfg.MinAge.Duration().String())
	go m.scheduleLoop(ctx)
	return cancel
}

func (m *Manager) scheduleLoop(ctx context.Context) {
	for {
		next, err := gronx.NextTickAfter(m.cfg.Cron, m.now(), false)
		if err != nil {
			logger.Error("reminder_nexttick_failed", "cron", m.cfg.Cron, "error", err)
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		wait := time.Until(next)
		if wait <= 0 {
			wait = time.Second
		}
		select {
		case <-time.After(wait):
			m.runJob(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) runJob(ctx context.Context) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
	}()

	if _, err := m.RunOnce(ctx); err != nil {
		logger.Error("reminder_run_error", "error", err)
	}
}

// RunOnce sends one digest and returns how many questions it listed. No
// notification is sent when nothing is old enough.
func (m *Manager) RunOnce(ctx context.Context) (int, error) {
	qs := m.src.PendingQuestions(m.cfg.MinAge.Duration())
	if len(qs) == 0 {
		logger.Debug("reminder_nothing_pending")
		return 0, nil
	}
	subject, body := Digest(qs, m.serviceName, m.now())
	if err := m.notifier.Notify(ctx, subject, body); err != nil {
		metrics.RecordNotifyFailure("reminder")
		return 0, fmt.Errorf("send reminder: %w", err)
	}
	logger.Info("reminder_sent", "questions", len(qs))
	return len(qs), nil
}

// Digest renders the reminder. Each line keeps the "Question #<id>" token,
// and a single-question digest reuses the question's own subject so that a
// reply to the reminder still answers it.
func Digest(qs []inbox.PendingQuestion, serviceName string, now time.Time) (subject, body string) {
	if len(qs) == 1 {
		subject = "Reminder: " + inbox.QuestionSubject(qs[0].ID, serviceName)
	} else {
		subject = fmt.Sprintf("%d questions awaiting an answer from %s", len(qs), serviceName)
	}
	var b strings.Builder
	for _, q := range qs {
		fmt.Fprintf(&b, "Question #%d (asked %s", q.ID, humanize.RelTime(q.AskedAt, now, "ago", "from now"))
		if q.ThreadName != "" {
			fmt.Fprintf(&b, " in %s", q.ThreadName)
		}
		fmt.Fprintf(&b, "): %s\n", q.Question)
	}
	return subject, b.String()
}
