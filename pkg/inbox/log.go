package inbox

import (
	"encoding/json"
	"fmt"

	"github.com/membrane-io/user/pkg/metrics"
	"github.com/membrane-io/user/pkg/models"
	"github.com/membrane-io/user/pkg/store"
)

// newBaseLocked allocates the next message id in th.
func (s *Service) newBaseLocked(th *models.Thread) models.Base {
	return models.Base{
		ID:         s.messageIDs.Next(),
		ThreadID:   th.ID,
		ReceivedAt: s.now().UTC(),
	}
}

// commitMessagesLocked writes msgs and the message counter in one batch.
func (s *Service) commitMessagesLocked(msgs ...models.Message) error {
	b, err := s.st.NewBatch()
	if err != nil {
		return err
	}
	if err := s.messageIDs.stage(b); err != nil {
		b.Discard()
		return err
	}
	for _, m := range msgs {
		raw, err := json.Marshal(models.Encode(m))
		if err != nil {
			b.Discard()
			return fmt.Errorf("marshal message %d: %w", m.GetID(), err)
		}
		if err := b.Set(store.GenMessageKey(m.GetID()), raw); err != nil {
			b.Discard()
			return err
		}
	}
	if err := b.Commit(); err != nil {
		return fmt.Errorf("persist messages: %w", err)
	}
	return nil
}

// appendLocked adds a committed message to the global and thread logs. Ids
// are allocated under the same lock, so both logs stay sorted.
func (s *Service) appendLocked(th *models.Thread, m models.Message) {
	s.log = append(s.log, m)
	th.Messages = append(th.Messages, m)
	metrics.RecordMessage(string(m.Kind()))
}

// postLocked resolves the thread for ch, persists the message built by mk
// and appends it.
func (s *Service) postLocked(ch models.Channel, mk func(models.Base) models.Message) (*models.Thread, models.Message, error) {
	th, err := s.getOrCreateLocked(ch)
	if err != nil {
		return nil, nil, err
	}
	m := mk(s.newBaseLocked(th))
	if err := s.commitMessagesLocked(m); err != nil {
		return nil, nil, err
	}
	s.appendLocked(th, m)
	return th, m, nil
}
