package inbox

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/membrane-io/user/pkg/logger"
	"github.com/membrane-io/user/pkg/metrics"
	"github.com/membrane-io/user/pkg/models"
	"github.com/membrane-io/user/pkg/pagination"
)

// correlationPattern finds the question id in a reply subject such as
// "Re: Question #42 from Membrane".
var correlationPattern = regexp.MustCompile(`Question #(\d+)`)

// QuestionSubject is the notification subject for question id. Replies must
// keep it for HandleInboundReply to find the question.
func QuestionSubject(id uint64, service string) string {
	return fmt.Sprintf("Question #%d from %s", id, service)
}

// MessageSubject is the notification subject for a tell.
func MessageSubject(service string) string {
	return "Message from " + service
}

// ParseCorrelation extracts the question id from subject.
func ParseCorrelation(subject string) (uint64, bool) {
	m := correlationPattern.FindStringSubmatch(subject)
	if m == nil {
		return 0, false
	}
	id, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// TellRequest is a one-way notice from a caller.
type TellRequest struct {
	Message string
	Node    models.NodeRef
	Channel models.Channel
}

// AskRequest is a question from a caller.
type AskRequest struct {
	Question string
	Node     models.NodeRef
	Channel  models.Channel
}

// Tell logs an inbound notice and forwards it to the responder. A failed
// notification is logged and counted but does not fail the call.
func (s *Service) Tell(ctx context.Context, req TellRequest) (*models.Tell, error) {
	s.mu.Lock()
	th, m, err := s.postLocked(req.Channel, func(b models.Base) models.Message {
		return &models.Tell{Base: b, Message: req.Message, Node: req.Node}
	})
	s.mu.Unlock()
	if err != nil {
		logger.Error("tell_failed", "error", err)
		return nil, err
	}
	t := m.(*models.Tell)
	logger.Info("message_told", "id", t.ID, "thread", th.ID, "node", string(req.Node))

	if err := s.notifier.Notify(ctx, MessageSubject(s.serviceName), req.Message); err != nil {
		metrics.RecordNotifyFailure("tell")
		logger.Warn("notify_failed", "op", "tell", "id", t.ID, "error", err)
	}
	return t, nil
}

// Ask logs a question, notifies the responder and blocks until Respond
// answers it. If the notification fails the question leaves the registry
// and Ask returns a *TransportError. Cancelling ctx returns ctx.Err() but
// leaves the question pending.
func (s *Service) Ask(ctx context.Context, req AskRequest) (string, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return "", ErrClosed
	}
	var w *waiter
	th, m, err := s.postLocked(req.Channel, func(b models.Base) models.Message {
		return &models.Question{Base: b, Question: req.Question, Node: req.Node}
	})
	if err == nil {
		q := m.(*models.Question)
		w = newWaiter(q)
		s.pending[q.ID] = w
		s.publishGaugesLocked()
	}
	s.mu.Unlock()
	if err != nil {
		logger.Error("ask_failed", "error", err)
		return "", err
	}
	id := m.GetID()
	logger.Info("question_asked", "id", id, "thread", th.ID, "node", string(req.Node))

	if err := s.notifier.Notify(ctx, QuestionSubject(id, s.serviceName), req.Question); err != nil {
		metrics.RecordNotifyFailure("ask")
		if s.abandon(id, w) {
			logger.Warn("notify_failed", "op", "ask", "id", id, "error", err)
			return "", &TransportError{Op: "ask", QuestionID: id, Err: err}
		}
		logger.Warn("notify_failed_after_answer", "id", id, "error", err)
	}

	select {
	case text := <-w.result:
		return text, nil
	case <-w.gone:
		return "", ErrClosed
	case <-ctx.Done():
		logger.Info("ask_detached", "id", id, "reason", ctx.Err())
		return "", ctx.Err()
	}
}

// Respond answers a pending question, appends the response and wakes the
// asker. Only the first response for a question succeeds.
func (s *Service) Respond(_ context.Context, id uint64, text string) (*models.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.pending[id]
	if !ok {
		return nil, s.missLocked(id)
	}
	q := w.question
	th := s.threads[q.ThreadID]
	r := &models.Response{Base: s.newBaseLocked(th), Response: text}

	answered := *q
	answered.ResponseID = r.ID
	if err := s.commitMessagesLocked(&answered, r); err != nil {
		logger.Error("respond_failed", "id", id, "error", err)
		return nil, err
	}
	q.ResponseID = r.ID
	s.appendLocked(th, r)
	delete(s.pending, id)
	s.publishGaugesLocked()
	w.result <- text

	logger.Info("question_answered", "id", id, "response", r.ID, "thread", th.ID)
	return r, nil
}

// missLocked explains why id has no pending entry.
func (s *Service) missLocked(id uint64) error {
	m, ok := pagination.One(id, s.log)
	if !ok {
		return fmt.Errorf("question %d: %w", id, ErrUnknownQuestion)
	}
	q, ok := m.(*models.Question)
	if !ok {
		return fmt.Errorf("message %d is a %s: %w", id, m.Kind(), ErrNotAQuestion)
	}
	if _, orphan := s.orphaned[id]; orphan && !q.Answered() {
		return fmt.Errorf("question %d: %w", id, ErrOrphanedQuestion)
	}
	return fmt.Errorf("question %d: %w", id, ErrUnknownQuestion)
}

// HandleInboundReply answers the question named in subject with text. A
// subject without a correlation token is ignored and returns (nil, nil).
func (s *Service) HandleInboundReply(ctx context.Context, subject, text string) (*models.Response, error) {
	id, ok := ParseCorrelation(subject)
	if !ok {
		metrics.RecordInboundReply(metrics.OutcomeUnmatched)
		logger.Debug("inbound_reply_unmatched", "subject", subject)
		return nil, nil
	}
	r, err := s.Respond(ctx, id, text)
	if err != nil {
		metrics.RecordInboundReply(metrics.OutcomeRejected)
		logger.Warn("inbound_reply_rejected", "id", id, "error", err)
		return nil, err
	}
	metrics.RecordInboundReply(metrics.OutcomeAnswered)
	return r, nil
}

// ThreadTell posts an outbound notice from the responder into a thread and
// delivers it through the thread's channel when the channel can Tell. A
// delivery failure returns a *TransportError; the notice stays logged.
func (s *Service) ThreadTell(ctx context.Context, threadID uint64, message string, node models.NodeRef) (*models.Tell, error) {
	s.mu.Lock()
	th, ok := s.threads[threadID]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("thread %d: %w", threadID, ErrThreadNotFound)
	}
	t := &models.Tell{Base: s.newBaseLocked(th), Message: message, Node: node, Outbound: true}
	if err := s.commitMessagesLocked(t); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.appendLocked(th, t)
	ch := th.Channel
	s.mu.Unlock()
	logger.Info("message_told_out", "id", t.ID, "thread", threadID)

	teller, ok := ch.(models.Teller)
	if !ok {
		return t, nil
	}
	if err := teller.Tell(ctx, message); err != nil {
		metrics.RecordNotifyFailure("thread_tell")
		logger.Warn("channel_tell_failed", "id", t.ID, "thread", threadID, "error", err)
		return t, &TransportError{Op: "thread_tell", Err: err}
	}
	return t, nil
}
