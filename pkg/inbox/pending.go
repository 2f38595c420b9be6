package inbox

import (
	"sort"
	"time"

	"github.com/membrane-io/user/pkg/metrics"
	"github.com/membrane-io/user/pkg/models"
)

// waiter is the in-memory continuation of a blocked Ask. result receives
// the answer exactly once; gone is closed if the service drops the waiter
// without an answer.
type waiter struct {
	question *models.Question
	result   chan string
	gone     chan struct{}
}

func newWaiter(q *models.Question) *waiter {
	return &waiter{question: q, result: make(chan string, 1), gone: make(chan struct{})}
}

func (s *Service) publishGaugesLocked() {
	metrics.SetPending(len(s.pending))
	metrics.SetOrphaned(len(s.orphaned))
}

// abandon moves id from pending to orphaned if w is still its entry, the
// same state a restart would leave it in. It reports false when the
// question was answered in the meantime.
func (s *Service) abandon(id uint64, w *waiter) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.pending[id]; !ok || cur != w {
		return false
	}
	delete(s.pending, id)
	s.orphaned[id] = struct{}{}
	s.publishGaugesLocked()
	return true
}

// PendingQuestion describes one question still waiting on the responder.
type PendingQuestion struct {
	ID         uint64         `json:"id"`
	ThreadID   uint64         `json:"thread_id"`
	ThreadName string         `json:"thread_name"`
	Question   string         `json:"question"`
	Node       models.NodeRef `json:"node,omitempty"`
	AskedAt    time.Time      `json:"asked_at"`
}

// PendingQuestions lists answerable questions asked at least minAge ago,
// oldest first.
func (s *Service) PendingQuestions(minAge time.Duration) []PendingQuestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-minAge)
	out := make([]PendingQuestion, 0, len(s.pending))
	for _, w := range s.pending {
		q := w.question
		if q.ReceivedAt.After(cutoff) {
			continue
		}
		pq := PendingQuestion{
			ID:       q.ID,
			ThreadID: q.ThreadID,
			Question: q.Question,
			Node:     q.Node,
			AskedAt:  q.ReceivedAt,
		}
		if th, ok := s.threads[q.ThreadID]; ok {
			pq.ThreadName = th.Name
		}
		out = append(out, pq)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// UnansweredCount is the size of the pending-question registry.
func (s *Service) UnansweredCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// OrphanedCount is the number of unanswered questions with no waiting caller.
func (s *Service) OrphanedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orphaned)
}
