package notify

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/membrane-io/user/pkg/config"
	"github.com/membrane-io/user/pkg/models"
)

type captured struct {
	path string
	body []byte
}

// serve starts an in-memory fasthttp server answering with status and
// returns a client dialing it.
func serve(t *testing.T, status int) (*fasthttp.Client, <-chan captured) {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	got := make(chan captured, 8)
	srv := &fasthttp.Server{Handler: func(ctx *fasthttp.RequestCtx) {
		got <- captured{path: string(ctx.Path()), body: append([]byte(nil), ctx.PostBody()...)}
		ctx.SetStatusCode(status)
	}}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = ln.Close() })
	client := &fasthttp.Client{Dial: func(string) (net.Conn, error) { return ln.Dial() }}
	return client, got
}

func TestWebhookNotify(t *testing.T) {
	client, got := serve(t, fasthttp.StatusOK)
	w := NewWebhook("http://responder.test/hook", time.Second, client)

	require.NoError(t, w.Notify(context.Background(), "Question #3 from Membrane", "deploy?"))
	c := <-got
	assert.Equal(t, "/hook", c.path)
	var p Payload
	require.NoError(t, json.Unmarshal(c.body, &p))
	assert.Equal(t, Payload{Subject: "Question #3 from Membrane", Body: "deploy?"}, p)
}

func TestWebhookNotifyRejectsBadStatus(t *testing.T) {
	client, _ := serve(t, fasthttp.StatusBadGateway)
	w := NewWebhook("http://responder.test/hook", time.Second, client)
	err := w.Notify(context.Background(), "s", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestWebhookNotifyHonorsCancelledContext(t *testing.T) {
	client, _ := serve(t, fasthttp.StatusOK)
	w := NewWebhook("http://responder.test/hook", time.Second, client)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, w.Notify(ctx, "s", "b"), context.Canceled)
}

func TestWebhookChannelTell(t *testing.T) {
	client, got := serve(t, fasthttp.StatusNoContent)
	ch := Channel("http://caller.test/replies", "Caller", true, time.Second, client)
	wc, ok := ch.(*WebhookChannel)
	require.True(t, ok)
	assert.Equal(t, "http://caller.test/replies", wc.Key())
	assert.Equal(t, "Caller", wc.Name())

	var teller models.Teller = wc
	require.NoError(t, teller.Tell(context.Background(), "done"))
	var p TellPayload
	require.NoError(t, json.Unmarshal((<-got).body, &p))
	assert.Equal(t, "done", p.Message)
}

func TestChannelFallsBackToKeyChannel(t *testing.T) {
	assert.Nil(t, Channel("", "", true, 0, nil))

	ch := Channel("slack:#ops", "", true, 0, nil)
	assert.Equal(t, models.KeyChannel{ID: "slack:#ops"}, ch)

	ch = Channel("https://caller.test", "", false, 0, nil)
	_, isHook := ch.(*WebhookChannel)
	assert.False(t, isHook)

	r := Resolver(true, 0, nil)
	_, isHook = r("https://caller.test", "x").(*WebhookChannel)
	assert.True(t, isHook)
}

func TestNewSelectsKind(t *testing.T) {
	n, err := New(config.NotifyConfig{Kind: "none"}, nil)
	require.NoError(t, err)
	assert.IsType(t, Noop{}, n)

	n, err = New(config.NotifyConfig{Kind: "log"}, nil)
	require.NoError(t, err)
	assert.IsType(t, Log{}, n)
	require.NoError(t, n.Notify(context.Background(), "s", "b"))

	n, err = New(config.NotifyConfig{Kind: "webhook", WebhookURL: "http://x.test"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &Webhook{}, n)

	_, err = New(config.NotifyConfig{Kind: "webhook"}, nil)
	require.Error(t, err)
	_, err = New(config.NotifyConfig{Kind: "pigeon"}, nil)
	require.Error(t, err)
}
