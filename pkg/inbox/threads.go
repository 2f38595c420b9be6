package inbox

import (
	"encoding/json"
	"fmt"

	"github.com/membrane-io/user/pkg/models"
	"github.com/membrane-io/user/pkg/store"
)

func threadName(ch models.Channel, key string) string {
	if key == "" {
		return models.DefaultThreadName
	}
	if n, ok := ch.(models.Named); ok && n.Name() != "" {
		return n.Name()
	}
	return key
}

// getOrCreateLocked returns the thread for ch, creating and persisting it on
// first contact. A nil channel or a channel with an empty key resolves to
// the shared default thread.
func (s *Service) getOrCreateLocked(ch models.Channel) (*models.Thread, error) {
	key := models.ChannelKey(ch)
	if th, ok := s.byChannel[key]; ok {
		if ch != nil && key != "" {
			// keep the most recent capabilities for this identity
			th.Channel = ch
		}
		return th, nil
	}

	th := &models.Thread{
		ID:         s.threadIDs.Next(),
		Name:       threadName(ch, key),
		ChannelKey: key,
		CreatedAt:  s.now().UTC(),
	}
	if key != "" {
		th.Channel = ch
	}

	b, err := s.st.NewBatch()
	if err != nil {
		return nil, err
	}
	if err := s.threadIDs.stage(b); err != nil {
		b.Discard()
		return nil, err
	}
	if err := stageThread(b, th); err != nil {
		b.Discard()
		return nil, err
	}
	if err := b.Set(store.GenChannelKey(key), store.EncodeCounter(th.ID)); err != nil {
		b.Discard()
		return nil, err
	}
	if err := b.Commit(); err != nil {
		return nil, fmt.Errorf("persist thread %d: %w", th.ID, err)
	}

	s.threads[th.ID] = th
	s.threadOrder = append(s.threadOrder, th)
	s.byChannel[key] = th
	return th, nil
}

func stageThread(b *store.Batch, th *models.Thread) error {
	raw, err := json.Marshal(th)
	if err != nil {
		return fmt.Errorf("marshal thread %d: %w", th.ID, err)
	}
	return b.Set(store.GenThreadKey(th.ID), raw)
}

// setReadLocked moves the read watermark of every given thread to its
// current length, persisting before mutating.
func (s *Service) setReadLocked(ths ...*models.Thread) error {
	b, err := s.st.NewBatch()
	if err != nil {
		return err
	}
	for _, th := range ths {
		cp := *th
		cp.ReadUpTo = len(th.Messages)
		if err := stageThread(b, &cp); err != nil {
			b.Discard()
			return err
		}
	}
	if err := b.Commit(); err != nil {
		return fmt.Errorf("persist read marks: %w", err)
	}
	for _, th := range ths {
		th.ReadUpTo = len(th.Messages)
	}
	return nil
}

// GetOrCreateThread resolves the thread for ch.
func (s *Service) GetOrCreateThread(ch models.Channel) (ThreadView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	th, err := s.getOrCreateLocked(ch)
	if err != nil {
		return ThreadView{}, err
	}
	return s.threadViewLocked(th), nil
}

// MarkRead sets the thread's watermark to its current message count.
func (s *Service) MarkRead(threadID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	th, ok := s.threads[threadID]
	if !ok {
		return fmt.Errorf("thread %d: %w", threadID, ErrThreadNotFound)
	}
	return s.setReadLocked(th)
}

// MarkAllRead marks every thread read.
func (s *Service) MarkAllRead() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.threadOrder) == 0 {
		return nil
	}
	return s.setReadLocked(s.threadOrder...)
}

// UnreadCount is the number of messages past the thread's watermark.
func (s *Service) UnreadCount(threadID uint64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	th, ok := s.threads[threadID]
	if !ok {
		return 0, fmt.Errorf("thread %d: %w", threadID, ErrThreadNotFound)
	}
	return th.Unread(), nil
}
