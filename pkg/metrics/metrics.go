package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	messagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inbox_messages_total",
			Help: "Messages appended to the log, by kind.",
		},
		[]string{"kind"},
	)

	pendingQuestions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "inbox_pending_questions",
			Help: "Questions waiting for an answer with a live caller.",
		},
	)

	orphanedQuestions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "inbox_orphaned_questions",
			Help: "Unanswered questions restored from disk whose caller is gone.",
		},
	)

	notifyFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inbox_notify_failures_total",
			Help: "Notification transport failures, by operation.",
		},
		[]string{"op"},
	)

	inboundReplies = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inbox_inbound_replies_total",
			Help: "Inbound replies processed, by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(messagesTotal)
	prometheus.MustRegister(pendingQuestions)
	prometheus.MustRegister(orphanedQuestions)
	prometheus.MustRegister(notifyFailures)
	prometheus.MustRegister(inboundReplies)
}

// Inbound reply outcomes.
const (
	OutcomeAnswered  = "answered"
	OutcomeUnmatched = "unmatched"
	OutcomeRejected  = "rejected"
)

func RecordMessage(kind string) { messagesTotal.WithLabelValues(kind).Inc() }

func SetPending(n int) { pendingQuestions.Set(float64(n)) }

func SetOrphaned(n int) { orphanedQuestions.Set(float64(n)) }

func RecordNotifyFailure(op string) { notifyFailures.WithLabelValues(op).Inc() }

func RecordInboundReply(outcome string) { inboundReplies.WithLabelValues(outcome).Inc() }
