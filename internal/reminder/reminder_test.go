package reminder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/membrane-io/user/pkg/config"
	"github.com/membrane-io/user/pkg/inbox"
)

type staticSource struct {
	qs     []inbox.PendingQuestion
	minAge time.Duration
}

func (s *staticSource) PendingQuestions(minAge time.Duration) []inbox.PendingQuestion {
	s.minAge = minAge
	return s.qs
}

type sent struct{ subject, body string }

type captureNotifier struct {
	got  []sent
	fail error
}

func (c *captureNotifier) Notify(_ context.Context, subject, body string) error {
	c.got = append(c.got, sent{subject, body})
	return c.fail
}

var now = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func TestDigestSingleQuestionKeepsCorrelation(t *testing.T) {
	qs := []inbox.PendingQuestion{{ID: 7, Question: "Approve PR?", ThreadName: "ci", AskedAt: now.Add(-2 * time.Hour)}}
	subject, body := Digest(qs, "Membrane", now)

	id, ok := inbox.ParseCorrelation(subject)
	require.True(t, ok)
	assert.Equal(t, uint64(7), id)
	assert.Equal(t, "Question #7 (asked 2 hours ago in ci): Approve PR?\n", body)
}

func TestDigestManyQuestions(t *testing.T) {
	qs := []inbox.PendingQuestion{
		{ID: 3, Question: "a?", AskedAt: now.Add(-26 * time.Hour)},
		{ID: 9, Question: "b?", AskedAt: now.Add(-90 * time.Minute)},
	}
	subject, body := Digest(qs, "Membrane", now)
	assert.Equal(t, "2 questions awaiting an answer from Membrane", subject)
	assert.Contains(t, body, "Question #3 (asked 1 day ago): a?")
	assert.Contains(t, body, "Question #9 (asked 1 hour ago): b?")
}

func TestRunOnce(t *testing.T) {
	src := &staticSource{}
	n := &captureNotifier{}
	cfg := config.ReminderConfig{Enabled: true, Cron: "0 9 * * *", MinAge: config.Duration(time.Hour)}
	m := New(cfg, src, n, "Membrane")
	m.now = func() time.Time { return now }

	count, err := m.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, n.got)
	assert.Equal(t, time.Hour, src.minAge)

	src.qs = []inbox.PendingQuestion{{ID: 1, Question: "q", AskedAt: now.Add(-3 * time.Hour)}}
	count, err = m.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.Len(t, n.got, 1)

	n.fail = errors.New("down")
	_, err = m.RunOnce(context.Background())
	require.Error(t, err)
}

func TestStartDisabledIsNoop(t *testing.T) {
	m := New(config.ReminderConfig{}, &staticSource{}, &captureNotifier{}, "x")
	cancel := m.Start(context.Background())
	require.NotNil(t, cancel)
	cancel()
}
