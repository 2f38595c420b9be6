package models

import (
	"fmt"
	"time"
)

// Kind names a message variant on the wire and in storage.
type Kind string

const (
	KindTell     Kind = "tell"
	KindTellOut  Kind = "tell-out"
	KindQuestion Kind = "question"
	KindResponse Kind = "response"
)

// Base holds the fields every message variant shares.
type Base struct {
	ID         uint64    `json:"id"`
	ThreadID   uint64    `json:"thread_id"`
	ReceivedAt time.Time `json:"received_at"`
}

func (b *Base) GetID() uint64 { return b.ID }

func (b *Base) Meta() *Base { return b }

// Message is the closed union of *Tell, *Question and *Response.
type Message interface {
	GetID() uint64
	Meta() *Base
	Kind() Kind
	Text() string
	isMessage()
}

// Tell is a one-way notice. Outbound is true for responder -> caller.
type Tell struct {
	Base
	Message  string  `json:"message"`
	Node     NodeRef `json:"node,omitempty"`
	Outbound bool    `json:"outbound,omitempty"`
}

// Question waits for exactly one Response. ResponseID is zero until answered
// and is set at most once.
type Question struct {
	Base
	Question   string  `json:"question"`
	Node       NodeRef `json:"node,omitempty"`
	ResponseID uint64  `json:"response_id,omitempty"`
}

// Response answers the Question whose ResponseID points at it.
type Response struct {
	Base
	Response string `json:"response"`
}

func (*Tell) isMessage()     {}
func (*Question) isMessage() {}
func (*Response) isMessage() {}

func (t *Tell) Kind() Kind {
	if t.Outbound {
		return KindTellOut
	}
	return KindTell
}

func (*Question) Kind() Kind { return KindQuestion }
func (*Response) Kind() Kind { return KindResponse }

func (t *Tell) Text() string     { return t.Message }
func (q *Question) Text() string { return q.Question }
func (r *Response) Text() string { return r.Response }

// Answered reports whether the question has a response.
func (q *Question) Answered() bool { return q.ResponseID != 0 }

// Envelope is the flat encoding of a Message used for storage and the HTTP
// surface.
type Envelope struct {
	Kind       Kind      `json:"kind"`
	ID         uint64    `json:"id"`
	ThreadID   uint64    `json:"thread_id"`
	ReceivedAt time.Time `json:"received_at"`
	Text       string    `json:"text"`
	Node       NodeRef   `json:"node,omitempty"`
	ResponseID uint64    `json:"response_id,omitempty"`
	Pending    bool      `json:"pending,omitempty"`
	Channel    string    `json:"channel,omitempty"`
}

// Encode flattens m. Pending is true for unanswered questions.
func Encode(m Message) Envelope {
	b := m.Meta()
	env := Envelope{
		Kind:       m.Kind(),
		ID:         b.ID,
		ThreadID:   b.ThreadID,
		ReceivedAt: b.ReceivedAt,
		Text:       m.Text(),
	}
	switch v := m.(type) {
	case *Tell:
		env.Node = v.Node
	case *Question:
		env.Node = v.Node
		env.ResponseID = v.ResponseID
		env.Pending = !v.Answered()
	case *Response:
	}
	return env
}

// Decode rebuilds the typed message from an envelope.
func Decode(env Envelope) (Message, error) {
	base := Base{ID: env.ID, ThreadID: env.ThreadID, ReceivedAt: env.ReceivedAt}
	if env.ID == 0 {
		return nil, fmt.Errorf("message envelope has no id")
	}
	switch env.Kind {
	case KindTell, KindTellOut:
		return &Tell{Base: base, Message: env.Text, Node: env.Node, Outbound: env.Kind == KindTellOut}, nil
	case KindQuestion:
		return &Question{Base: base, Question: env.Text, Node: env.Node, ResponseID: env.ResponseID}, nil
	case KindResponse:
		return &Response{Base: base, Response: env.Text}, nil
	default:
		return nil, fmt.Errorf("unknown message kind %q", env.Kind)
	}
}
