package api

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

	"github.com/membrane-io/user/pkg/inbox"
	"github.com/membrane-io/user/pkg/models"
	"github.com/membrane-io/user/pkg/pagination"
	"github.com/membrane-io/user/pkg/store"
)

type recorder struct {
	subjects chan string
}

func (r *recorder) Notify(_ context.Context, subject, _ string) error {
	r.subjects <- subject
	return nil
}

type harness struct {
	client   *fasthttp.Client
	svc      *inbox.Service
	subjects chan string
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	st, err := store.Open("", store.Options{InMemory: true})
	require.NoError(t, err)
	rec := &recorder{subjects: make(chan string, 32)}
	svc, err := inbox.New(inbox.Options{Store: st, Notifier: rec, ServiceName: "Membrane"})
	require.NoError(t, err)

	opts.Inbox = svc
	h := New(opts)
	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: h.Handler()}
	go func() { _ = srv.Serve(ln) }()

	t.Cleanup(func() {
		svc.Close()
		_ = ln.Close()
		h.Close()
		_ = st.Close()
	})
	return &harness{
		client:   &fasthttp.Client{Dial: func(string) (net.Conn, error) { return ln.Dial() }},
		svc:      svc,
		subjects: rec.subjects,
	}
}

func (h *harness) do(t *testing.T, method, path string, body any, out any) int {
	t.Helper()
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.Header.SetMethod(method)
	req.SetRequestURI("http://inbox.test" + path)
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		req.Header.SetContentType("application/json")
		req.SetBody(raw)
	}
	require.NoError(t, h.client.DoTimeout(req, resp, 5*time.Second))
	if out != nil {
		require.NoError(t, json.Unmarshal(resp.Body(), out), string(resp.Body()))
	}
	return resp.StatusCode()
}

func TestTellAndList(t *testing.T) {
	h := newHarness(t, Options{})

	var env models.Envelope
	code := h.do(t, "POST", "/v1/tell", TellRequest{Message: "build green", Node: "ci", Channel: "slack:#ci"}, &env)
	require.Equal(t, fasthttp.StatusAccepted, code)
	assert.Equal(t, models.KindTell, env.Kind)

	var threads pagination.Offset[inbox.ThreadView]
	require.Equal(t, fasthttp.StatusOK, h.do(t, "GET", "/v1/threads", nil, &threads))
	require.Len(t, threads.Items, 1)
	assert.Equal(t, "slack:#ci", threads.Items[0].Name)
	assert.Equal(t, 1, threads.Items[0].UnreadCount)
	assert.Nil(t, threads.Next)

	var page inbox.MessagePage
	require.Equal(t, fasthttp.StatusOK, h.do(t, "GET", "/v1/messages", nil, &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, "slack:#ci", page.Items[0].Channel)

	code = h.do(t, "POST", "/v1/tell", TellRequest{}, nil)
	assert.Equal(t, fasthttp.StatusBadRequest, code)
}

func TestAskAnsweredOverHTTP(t *testing.T) {
	h := newHarness(t, Options{})

	done := make(chan AskResponse, 1)
	go func() {
		var out AskResponse
		h.do(t, "POST", "/v1/ask", AskRequest{Question: "Ship it?"}, &out)
		done <- out
	}()

	var subject string
	select {
	case subject = <-h.subjects:
	case <-time.After(2 * time.Second):
		t.Fatal("question was not notified")
	}
	id, ok := inbox.ParseCorrelation(subject)
	require.True(t, ok)

	var root inbox.RootView
	h.do(t, "GET", "/v1/root", nil, &root)
	assert.Equal(t, 1, root.UnansweredCount)

	var res InboundResult
	code := h.do(t, "POST", "/v1/inbound", InboundReply{
		Subject:   "Re: " + subject,
		Text:      "yes\n\n> Ship it?",
		ReplyText: "yes",
	}, &res)
	require.Equal(t, fasthttp.StatusOK, code)
	assert.True(t, res.Matched)
	require.NotNil(t, res.Response)
	assert.Equal(t, "yes", res.Response.Text)

	select {
	case out := <-done:
		assert.Equal(t, "yes", out.Answer)
	case <-time.After(2 * time.Second):
		t.Fatal("ask did not return")
	}

	code = h.do(t, "POST", "/v1/messages/"+itoa(id)+"/respond", RespondRequest{Text: "again"}, nil)
	assert.Equal(t, fasthttp.StatusNotFound, code)
}

func TestInboundWithoutTokenIsIgnored(t *testing.T) {
	h := newHarness(t, Options{})
	var res InboundResult
	code := h.do(t, "POST", "/v1/inbound", InboundReply{Subject: "hello", Text: "hi"}, &res)
	require.Equal(t, fasthttp.StatusOK, code)
	assert.False(t, res.Matched)
}

func TestRespondStatusCodes(t *testing.T) {
	h := newHarness(t, Options{})

	var env models.Envelope
	h.do(t, "POST", "/v1/tell", TellRequest{Message: "fyi"}, &env)

	assert.Equal(t, fasthttp.StatusConflict,
		h.do(t, "POST", "/v1/messages/"+itoa(env.ID)+"/respond", RespondRequest{Text: "x"}, nil))
	assert.Equal(t, fasthttp.StatusNotFound,
		h.do(t, "POST", "/v1/messages/999/respond", RespondRequest{Text: "x"}, nil))
	assert.Equal(t, fasthttp.StatusBadRequest,
		h.do(t, "POST", "/v1/messages/abc/respond", RespondRequest{Text: "x"}, nil))
}

func TestThreadRoutes(t *testing.T) {
	h := newHarness(t, Options{})
	for i := 0; i < 3; i++ {
		h.do(t, "POST", "/v1/tell", TellRequest{Message: "m"}, nil)
	}

	var th inbox.ThreadView
	require.Equal(t, fasthttp.StatusOK, h.do(t, "GET", "/v1/threads/1", nil, &th))
	assert.Equal(t, models.DefaultThreadName, th.Name)
	assert.Equal(t, 3, th.UnreadCount)

	var page inbox.MessagePage
	h.do(t, "GET", "/v1/threads/1/messages?pageSize=2", nil, &page)
	require.Len(t, page.Items, 2)
	require.NotZero(t, page.NextBefore)
	h.do(t, "GET", "/v1/threads/1/messages?pageSize=2&before="+itoa(page.NextBefore), nil, &page)
	require.Len(t, page.Items, 1)
	assert.Zero(t, page.NextBefore)

	var env models.Envelope
	require.Equal(t, fasthttp.StatusCreated, h.do(t, "POST", "/v1/threads/1/tell", ThreadTellRequest{Message: "on it"}, &env))
	assert.Equal(t, models.KindTellOut, env.Kind)
	require.Equal(t, fasthttp.StatusOK, h.do(t, "GET", "/v1/threads/1/messages/"+itoa(env.ID), nil, &env))

	require.Equal(t, fasthttp.StatusOK, h.do(t, "POST", "/v1/threads/1/read", nil, &th))
	assert.Equal(t, 0, th.UnreadCount)

	assert.Equal(t, fasthttp.StatusNotFound, h.do(t, "GET", "/v1/threads/9", nil, nil))
	assert.Equal(t, fasthttp.StatusNotFound, h.do(t, "GET", "/v1/messages/99", nil, nil))

	var root inbox.RootView
	h.do(t, "POST", "/v1/tell", TellRequest{Message: "late"}, nil)
	require.Equal(t, fasthttp.StatusOK, h.do(t, "POST", "/v1/root/read", nil, &root))
	assert.Equal(t, 0, root.UnreadCount)
	assert.Equal(t, inbox.RootName, root.Name)
}

func TestAskRateLimited(t *testing.T) {
	h := newHarness(t, Options{RPS: 0.001, Burst: 1})
	// first request consumes the only token and fails validation
	assert.Equal(t, fasthttp.StatusBadRequest, h.do(t, "POST", "/v1/ask", AskRequest{}, nil))
	assert.Equal(t, fasthttp.StatusTooManyRequests, h.do(t, "POST", "/v1/ask", AskRequest{}, nil))
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t, Options{})
	h.do(t, "POST", "/v1/tell", TellRequest{Message: "count me"}, nil)

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)
	req.SetRequestURI("http://inbox.test/metrics")
	require.NoError(t, h.client.DoTimeout(req, resp, 5*time.Second))
	assert.Equal(t, fasthttp.StatusOK, resp.StatusCode())
	assert.Contains(t, string(resp.Body()), "inbox_messages_total")
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, fasthttp.StatusBadGateway, statusFor(&inbox.TransportError{Op: "ask"}))
	assert.Equal(t, fasthttp.StatusConflict, statusFor(inbox.ErrOrphanedQuestion))
	assert.Equal(t, fasthttp.StatusServiceUnavailable, statusFor(inbox.ErrClosed))
	assert.Equal(t, fasthttp.StatusInternalServerError, statusFor(assert.AnError))
}

func itoa(v uint64) string {
	b, _ := json.Marshal(v)
	return string(b)
}
