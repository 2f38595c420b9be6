package inbox

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/membrane-io/user/pkg/logger"
	"github.com/membrane-io/user/pkg/models"
	"github.com/membrane-io/user/pkg/store"
)

// load rebuilds in-memory state from the store. Thread logs are rebuilt by
// replaying the global log in id order. Unanswered questions come back as
// orphaned because their callers did not survive the restart.
func (s *Service) load() error {
	if err := s.st.CheckSchema(); err != nil {
		return err
	}

	var threads []*models.Thread
	err := s.st.Scan(store.ThreadPrefix, func(k, v []byte) error {
		th := &models.Thread{}
		if err := json.Unmarshal(v, th); err != nil {
			return fmt.Errorf("decode thread: %w", err)
		}
		if err := checkKey(k, th.ID); err != nil {
			return err
		}
		threads = append(threads, th)
		return nil
	})
	if err != nil {
		return fmt.Errorf("load threads: %w", err)
	}
	sort.Slice(threads, func(i, j int) bool { return threads[i].ID < threads[j].ID })

	var maxThread uint64
	for _, th := range threads {
		th.Channel = s.restoreChannel(th)
		s.threads[th.ID] = th
		s.threadOrder = append(s.threadOrder, th)
		s.byChannel[th.ChannelKey] = th
		if th.ID > maxThread {
			maxThread = th.ID
		}
	}

	// the channel index wins over the key stored on the thread record
	err = s.st.Scan(store.ChannelPrefix, func(k, v []byte) error {
		key := strings.TrimPrefix(string(k), store.ChannelPrefix)
		id, err := store.DecodeCounter(v)
		if err != nil {
			return fmt.Errorf("decode channel index %q: %w", key, err)
		}
		if th, ok := s.threads[id]; ok {
			s.byChannel[key] = th
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("load channel index: %w", err)
	}

	var maxMessage uint64
	err = s.st.Scan(store.MessagePrefix, func(k, v []byte) error {
		var env models.Envelope
		if err := json.Unmarshal(v, &env); err != nil {
			return fmt.Errorf("decode message: %w", err)
		}
		if err := checkKey(k, env.ID); err != nil {
			return err
		}
		m, err := models.Decode(env)
		if err != nil {
			return err
		}
		th, ok := s.threads[env.ThreadID]
		if !ok {
			return fmt.Errorf("message %d references missing thread %d", env.ID, env.ThreadID)
		}
		s.log = append(s.log, m)
		th.Messages = append(th.Messages, m)
		if q, ok := m.(*models.Question); ok && !q.Answered() {
			s.orphaned[q.ID] = struct{}{}
		}
		maxMessage = env.ID
		return nil
	})
	if err != nil {
		return fmt.Errorf("load messages: %w", err)
	}

	for _, th := range threads {
		if th.ReadUpTo > len(th.Messages) {
			th.ReadUpTo = len(th.Messages)
		}
	}

	if err := s.threadIDs.load(s.st, maxThread+1); err != nil {
		return fmt.Errorf("load thread counter: %w", err)
	}
	if err := s.messageIDs.load(s.st, maxMessage+1); err != nil {
		return fmt.Errorf("load message counter: %w", err)
	}
	s.publishGaugesLocked()
	if len(s.orphaned) > 0 {
		logger.Warn("orphaned_questions_restored", "count", len(s.orphaned))
	}
	return nil
}

// checkKey rejects a record stored under a key that names another id.
func checkKey(k []byte, id uint64) error {
	keyID, err := store.ParseIDKey(string(k))
	if err != nil {
		return err
	}
	if keyID != id {
		return fmt.Errorf("record %d stored under %q", id, k)
	}
	return nil
}

func (s *Service) restoreChannel(th *models.Thread) models.Channel {
	if th.ChannelKey == "" {
		return nil
	}
	if s.resolve != nil {
		if ch := s.resolve(th.ChannelKey, th.Name); ch != nil {
			return ch
		}
	}
	return models.KeyChannel{ID: th.ChannelKey, DisplayName: th.Name}
}
