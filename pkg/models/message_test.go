package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindAndText(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		msg  Message
		kind Kind
		text string
	}{
		{&Tell{Base: Base{ID: 1, ReceivedAt: at}, Message: "build done"}, KindTell, "build done"},
		{&Tell{Base: Base{ID: 2}, Message: "thanks", Outbound: true}, KindTellOut, "thanks"},
		{&Question{Base: Base{ID: 3}, Question: "deploy?"}, KindQuestion, "deploy?"},
		{&Response{Base: Base{ID: 4}, Response: "yes"}, KindResponse, "yes"},
	}
	for _, c := range cases {
		assert.Equal(t, c.kind, c.msg.Kind())
		assert.Equal(t, c.text, c.msg.Text())
	}
}

func TestEncodeDecodePreservesVariant(t *testing.T) {
	q := &Question{Base: Base{ID: 9, ThreadID: 2}, Question: "ship it?", Node: "ci"}
	env := Encode(q)
	assert.True(t, env.Pending)
	assert.Equal(t, KindQuestion, env.Kind)

	q.ResponseID = 10
	env = Encode(q)
	assert.False(t, env.Pending)

	back, err := Decode(env)
	require.NoError(t, err)
	bq, ok := back.(*Question)
	require.True(t, ok)
	assert.Equal(t, uint64(10), bq.ResponseID)
	assert.Equal(t, NodeRef("ci"), bq.Node)

	out, err := Decode(Encode(&Tell{Base: Base{ID: 11}, Message: "hi", Outbound: true}))
	require.NoError(t, err)
	assert.True(t, out.(*Tell).Outbound)
}

func TestDecodeRejectsUnknownKind(t *testing.T) {
	_, err := Decode(Envelope{ID: 1, Kind: "reaction"})
	require.Error(t, err)
	_, err = Decode(Envelope{Kind: KindTell})
	require.Error(t, err)
}

func TestChannelKey(t *testing.T) {
	assert.Equal(t, "", ChannelKey(nil))
	ch := KeyChannel{ID: "slack:#ops"}
	assert.Equal(t, "slack:#ops", ChannelKey(ch))
	assert.Equal(t, "slack:#ops", ch.Name())
	assert.Equal(t, "Ops", KeyChannel{ID: "x", DisplayName: "Ops"}.Name())
}
