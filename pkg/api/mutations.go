package api

import (
	"strings"

	"github.com/valyala/fasthttp"

	"github.com/membrane-io/user/pkg/inbox"
	"github.com/membrane-io/user/pkg/models"
	"github.com/membrane-io/user/pkg/router"
)

// Tell records a one-way notice. It answers 202 once the message is logged.
func (h *Handlers) Tell(ctx *fasthttp.RequestCtx) {
	var req TellRequest
	if err := router.DecodeJSON(ctx, &req); err != nil {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, "message is required")
		return
	}
	t, err := h.inbox.Tell(ctx, inbox.TellRequest{
		Message: req.Message,
		Node:    req.Node,
		Channel: h.channel(req.Channel, req.ChannelName),
	})
	if err != nil {
		writeError(ctx, err)
		return
	}
	router.WriteJSONStatus(ctx, fasthttp.StatusAccepted, models.Encode(t))
}

// Ask blocks until the question is answered.
func (h *Handlers) Ask(ctx *fasthttp.RequestCtx) {
	var req AskRequest
	if err := router.DecodeJSON(ctx, &req); err != nil {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, "question is required")
		return
	}
	answer, err := h.inbox.Ask(ctx, inbox.AskRequest{
		Question: req.Question,
		Node:     req.Node,
		Channel:  h.channel(req.Channel, req.ChannelName),
	})
	if err != nil {
		writeError(ctx, err)
		return
	}
	_ = router.WriteJSON(ctx, AskResponse{Answer: answer})
}

// Inbound handles a reply from the responder's transport. Replies without a
// correlation token are accepted and ignored.
func (h *Handlers) Inbound(ctx *fasthttp.RequestCtx) {
	var req InboundReply
	if err := router.DecodeJSON(ctx, &req); err != nil {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}
	text := req.ReplyText
	if text == "" {
		text = req.Text
	}
	r, err := h.inbox.HandleInboundReply(ctx, req.Subject, text)
	if err != nil {
		writeError(ctx, err)
		return
	}
	res := InboundResult{Matched: r != nil}
	if r != nil {
		env := models.Encode(r)
		res.Response = &env
	}
	_ = router.WriteJSON(ctx, res)
}

// Respond answers a question by id.
func (h *Handlers) Respond(ctx *fasthttp.RequestCtx) {
	id, err := router.IDParam(ctx, "mid")
	if err != nil {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}
	var req RespondRequest
	if err := router.DecodeJSON(ctx, &req); err != nil {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}
	r, err := h.inbox.Respond(ctx, id, req.Text)
	if err != nil {
		writeError(ctx, err)
		return
	}
	router.WriteJSONStatus(ctx, fasthttp.StatusCreated, models.Encode(r))
}

// ThreadTell sends an outbound notice into a thread.
func (h *Handlers) ThreadTell(ctx *fasthttp.RequestCtx) {
	id, err := router.IDParam(ctx, "id")
	if err != nil {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}
	var req ThreadTellRequest
	if err := router.DecodeJSON(ctx, &req); err != nil {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, "message is required")
		return
	}
	t, err := h.inbox.ThreadTell(ctx, id, req.Message, req.Node)
	if err != nil {
		writeError(ctx, err)
		return
	}
	router.WriteJSONStatus(ctx, fasthttp.StatusCreated, models.Encode(t))
}

// MarkAllRead marks every thread read.
func (h *Handlers) MarkAllRead(ctx *fasthttp.RequestCtx) {
	if err := h.inbox.MarkAllRead(); err != nil {
		writeError(ctx, err)
		return
	}
	_ = router.WriteJSON(ctx, h.inbox.Root())
}

// MarkThreadRead marks one thread read.
func (h *Handlers) MarkThreadRead(ctx *fasthttp.RequestCtx) {
	id, err := router.IDParam(ctx, "id")
	if err != nil {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}
	if err := h.inbox.MarkRead(id); err != nil {
		writeError(ctx, err)
		return
	}
	th, err := h.inbox.Thread(id)
	if err != nil {
		writeError(ctx, err)
		return
	}
	_ = router.WriteJSON(ctx, th)
}
