package api

import (
	"github.com/valyala/fasthttp"

	"github.com/membrane-io/user/pkg/pagination"
	"github.com/membrane-io/user/pkg/router"
)

func (h *Handlers) Root(ctx *fasthttp.RequestCtx) {
	_ = router.WriteJSON(ctx, h.inbox.Root())
}

func (h *Handlers) ListThreads(ctx *fasthttp.RequestCtx) {
	req := pagination.ParseOffsetRequest(ctx)
	_ = router.WriteJSON(ctx, h.inbox.ThreadsPage(req.Page, req.PageSize))
}

func (h *Handlers) ReadThread(ctx *fasthttp.RequestCtx) {
	id, err := router.IDParam(ctx, "id")
	if err != nil {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}
	th, err := h.inbox.Thread(id)
	if err != nil {
		writeError(ctx, err)
		return
	}
	_ = router.WriteJSON(ctx, th)
}

func (h *Handlers) ListThreadMessages(ctx *fasthttp.RequestCtx) {
	id, err := router.IDParam(ctx, "id")
	if err != nil {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}
	req := pagination.ParseCursorRequest(ctx)
	page, err := h.inbox.ThreadMessages(id, req.Before, req.PageSize)
	if err != nil {
		writeError(ctx, err)
		return
	}
	_ = router.WriteJSON(ctx, page)
}

func (h *Handlers) ReadThreadMessage(ctx *fasthttp.RequestCtx) {
	id, err := router.IDParam(ctx, "id")
	if err != nil {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}
	mid, err := router.IDParam(ctx, "mid")
	if err != nil {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}
	env, err := h.inbox.ThreadMessage(id, mid)
	if err != nil {
		writeError(ctx, err)
		return
	}
	_ = router.WriteJSON(ctx, env)
}

func (h *Handlers) ListMessages(ctx *fasthttp.RequestCtx) {
	req := pagination.ParseCursorRequest(ctx)
	_ = router.WriteJSON(ctx, h.inbox.Messages(req.Before, req.PageSize))
}

func (h *Handlers) ReadMessage(ctx *fasthttp.RequestCtx) {
	mid, err := router.IDParam(ctx, "mid")
	if err != nil {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}
	env, err := h.inbox.Message(mid)
	if err != nil {
		writeError(ctx, err)
		return
	}
	_ = router.WriteJSON(ctx, env)
}
