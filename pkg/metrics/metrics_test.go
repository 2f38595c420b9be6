package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(messagesTotal.WithLabelValues("question"))
	RecordMessage("question")
	assert.Equal(t, before+1, testutil.ToFloat64(messagesTotal.WithLabelValues("question")))

	SetPending(3)
	assert.Equal(t, float64(3), testutil.ToFloat64(pendingQuestions))

	f := testutil.ToFloat64(notifyFailures.WithLabelValues("ask"))
	RecordNotifyFailure("ask")
	assert.Equal(t, f+1, testutil.ToFloat64(notifyFailures.WithLabelValues("ask")))

	r := testutil.ToFloat64(inboundReplies.WithLabelValues(OutcomeUnmatched))
	RecordInboundReply(OutcomeUnmatched)
	assert.Equal(t, r+1, testutil.ToFloat64(inboundReplies.WithLabelValues(OutcomeUnmatched)))
}
