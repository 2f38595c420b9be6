package models

import (
	"context"
	"time"
)

// DefaultThreadName labels the thread shared by every channel-less caller.
const DefaultThreadName = "Default thread"

// NodeRef is an opaque reference to the caller that posted a message.
type NodeRef string

// Channel is an opaque conversation origin. Two channels are the same
// channel iff their keys are equal; an empty key is the default channel.
type Channel interface {
	Key() string
}

// Named is implemented by channels that carry a display name.
type Named interface {
	Name() string
}

// Teller is implemented by channels that can deliver a one-way message back
// to the caller side.
type Teller interface {
	Tell(ctx context.Context, message string) error
}

// ChannelKey returns the identity of ch, "" for nil.
func ChannelKey(ch Channel) string {
	if ch == nil {
		return ""
	}
	return ch.Key()
}

// Thread is a named, ordered conversation scoped to one channel identity.
type Thread struct {
	ID         uint64    `json:"id"`
	Name       string    `json:"name"`
	ChannelKey string    `json:"channel,omitempty"`
	ReadUpTo   int       `json:"read_up_to"`
	CreatedAt  time.Time `json:"created_at"`

	// runtime only
	Channel  Channel   `json:"-"`
	Messages []Message `json:"-"`
}

// Unread is the number of messages past the read watermark.
func (t *Thread) Unread() int {
	return len(t.Messages) - t.ReadUpTo
}

// KeyChannel is a Channel identified only by its key, with an optional
// display name. It has no Tell capability.
type KeyChannel struct {
	ID          string `json:"key"`
	DisplayName string `json:"name,omitempty"`
}

func (c KeyChannel) Key() string { return c.ID }

func (c KeyChannel) Name() string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	return c.ID
}
