package inbox

import (
	"fmt"
	"time"

	"github.com/membrane-io/user/pkg/models"
	"github.com/membrane-io/user/pkg/pagination"
)

// RootName labels the root of the inbox.
const RootName = "User"

// RootView aggregates counts across every thread.
type RootView struct {
	Name            string `json:"name"`
	Threads         int    `json:"threads"`
	UnreadCount     int    `json:"unread_count"`
	UnansweredCount int    `json:"unanswered_count"`
	OrphanedCount   int    `json:"orphaned_count"`
}

// ThreadView is a snapshot of one thread.
type ThreadView struct {
	ID              uint64    `json:"id"`
	Name            string    `json:"name"`
	Channel         string    `json:"channel,omitempty"`
	Messages        int       `json:"messages"`
	ReadUpTo        int       `json:"read_up_to"`
	UnreadCount     int       `json:"unread_count"`
	UnansweredCount int       `json:"unanswered_count"`
	CreatedAt       time.Time `json:"created_at"`
}

// MessagePage is one backward page of messages.
type MessagePage struct {
	Items []models.Envelope `json:"items"`
	// NextBefore is the cursor for the next page, 0 when there is none.
	NextBefore uint64 `json:"next_before,omitempty"`

	next func() (*MessagePage, error)
}

// Next loads the following, older page. It returns nil when there is none.
func (p *MessagePage) Next() (*MessagePage, error) {
	if p.next == nil {
		return nil, nil
	}
	return p.next()
}

// Root returns the aggregate view.
func (s *Service) Root() RootView {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := RootView{
		Name:            RootName,
		Threads:         len(s.threadOrder),
		UnansweredCount: len(s.pending),
		OrphanedCount:   len(s.orphaned),
	}
	for _, th := range s.threadOrder {
		v.UnreadCount += th.Unread()
	}
	return v
}

func (s *Service) threadViewLocked(th *models.Thread) ThreadView {
	v := ThreadView{
		ID:          th.ID,
		Name:        th.Name,
		Channel:     th.ChannelKey,
		Messages:    len(th.Messages),
		ReadUpTo:    th.ReadUpTo,
		UnreadCount: th.Unread(),
		CreatedAt:   th.CreatedAt,
	}
	for _, w := range s.pending {
		if w.question.ThreadID == th.ID {
			v.UnansweredCount++
		}
	}
	return v
}

// Thread returns the view of one thread.
func (s *Service) Thread(id uint64) (ThreadView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	th, ok := s.threads[id]
	if !ok {
		return ThreadView{}, fmt.Errorf("thread %d: %w", id, ErrThreadNotFound)
	}
	return s.threadViewLocked(th), nil
}

// ThreadsPage lists threads in creation order, pageSize per page.
func (s *Service) ThreadsPage(page, pageSize int) pagination.Offset[ThreadView] {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := pagination.OffsetPage(page, pageSize, s.threadOrder)
	out := pagination.Offset[ThreadView]{
		Items: make([]ThreadView, 0, len(p.Items)),
		Next:  p.Next,
	}
	for _, th := range p.Items {
		out.Items = append(out.Items, s.threadViewLocked(th))
	}
	return out
}

func (s *Service) envelopeLocked(m models.Message) models.Envelope {
	env := models.Encode(m)
	if th, ok := s.threads[m.Meta().ThreadID]; ok {
		env.Channel = th.ChannelKey
	}
	return env
}

// pageLocked encodes one page of list and wires Next back through fetch so
// later pages observe the state at the time they are requested.
func (s *Service) pageLocked(before uint64, pageSize int, list []models.Message, fetch func(before uint64) (*MessagePage, error)) *MessagePage {
	p := pagination.Paginate(before, pageSize, list)
	out := &MessagePage{Items: make([]models.Envelope, 0, len(p.Items))}
	for _, m := range p.Items {
		out.Items = append(out.Items, s.envelopeLocked(m))
	}
	if p.HasNext() {
		cursor := p.NextBefore()
		out.NextBefore = cursor
		out.next = func() (*MessagePage, error) { return fetch(cursor) }
	}
	return out
}

// Messages pages backward through the global log. before == 0 starts at the
// newest message.
func (s *Service) Messages(before uint64, pageSize int) *MessagePage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pageLocked(before, pageSize, s.log, func(c uint64) (*MessagePage, error) {
		return s.Messages(c, pageSize), nil
	})
}

// ThreadMessages pages backward through one thread.
func (s *Service) ThreadMessages(threadID, before uint64, pageSize int) (*MessagePage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	th, ok := s.threads[threadID]
	if !ok {
		return nil, fmt.Errorf("thread %d: %w", threadID, ErrThreadNotFound)
	}
	return s.pageLocked(before, pageSize, th.Messages, func(c uint64) (*MessagePage, error) {
		return s.ThreadMessages(threadID, c, pageSize)
	}), nil
}

// Message returns one message from the global log.
func (s *Service) Message(id uint64) (models.Envelope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := pagination.One(id, s.log)
	if !ok {
		return models.Envelope{}, fmt.Errorf("message %d: %w", id, ErrMessageNotFound)
	}
	return s.envelopeLocked(m), nil
}

// ThreadMessage returns one message if it belongs to the thread.
func (s *Service) ThreadMessage(threadID, id uint64) (models.Envelope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	th, ok := s.threads[threadID]
	if !ok {
		return models.Envelope{}, fmt.Errorf("thread %d: %w", threadID, ErrThreadNotFound)
	}
	m, ok := pagination.One(id, th.Messages)
	if !ok {
		return models.Envelope{}, fmt.Errorf("message %d in thread %d: %w", id, threadID, ErrMessageNotFound)
	}
	return s.envelopeLocked(m), nil
}
