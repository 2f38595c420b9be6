package store

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// notation dictionary for key formats:
	// t   = thread record
	// m   = message record (global log position)
	// c   = channel -> thread index
	// sys = counters and markers
	// ids are zero padded to IDPadWidth so lexicographic order is id order

	ThreadKey  = "t:%020d" // t:<thread_id>
	MessageKey = "m:%020d" // m:<message_id>
	ChannelKey = "c:%s"    // c:<channel_key>, "c:" alone is the default channel

	ThreadPrefix  = "t:"
	MessagePrefix = "m:"
	ChannelPrefix = "c:"

	NextThreadIDKey  = "sys:next:thread"
	NextMessageIDKey = "sys:next:message"
	SchemaVersionKey = "sys:version"

	IDPadWidth = 20

	// SchemaVersion is the key layout written by this package.
	SchemaVersion = 1
)

func GenThreadKey(id uint64) string { return fmt.Sprintf(ThreadKey, id) }

func GenMessageKey(id uint64) string { return fmt.Sprintf(MessageKey, id) }

func GenChannelKey(channel string) string { return fmt.Sprintf(ChannelKey, channel) }

// ParseIDKey extracts the numeric id from a "t:" or "m:" key.
func ParseIDKey(key string) (uint64, error) {
	var rest string
	switch {
	case strings.HasPrefix(key, ThreadPrefix):
		rest = strings.TrimPrefix(key, ThreadPrefix)
	case strings.HasPrefix(key, MessagePrefix):
		rest = strings.TrimPrefix(key, MessagePrefix)
	default:
		return 0, fmt.Errorf("not an id key: %q", key)
	}
	if len(rest) != IDPadWidth {
		return 0, fmt.Errorf("malformed id key: %q", key)
	}
	id, err := strconv.ParseUint(rest, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed id key %q: %w", key, err)
	}
	return id, nil
}

// EncodeCounter and DecodeCounter store counters as decimal text so the
// values stay readable in key dumps.
func EncodeCounter(v uint64) []byte { return []byte(strconv.FormatUint(v, 10)) }

func DecodeCounter(b []byte) (uint64, error) {
	return strconv.ParseUint(string(b), 10, 64)
}
