package api

import (
	"context"
	"errors"

	"github.com/valyala/fasthttp"

	"github.com/membrane-io/user/pkg/inbox"
	"github.com/membrane-io/user/pkg/logger"
	"github.com/membrane-io/user/pkg/router"
)

// statusFor maps inbox errors onto HTTP status codes.
func statusFor(err error) int {
	var te *inbox.TransportError
	switch {
	case errors.As(err, &te):
		return fasthttp.StatusBadGateway
	case errors.Is(err, inbox.ErrOrphanedQuestion), errors.Is(err, inbox.ErrNotAQuestion):
		return fasthttp.StatusConflict
	case errors.Is(err, inbox.ErrUnknownQuestion),
		errors.Is(err, inbox.ErrThreadNotFound),
		errors.Is(err, inbox.ErrMessageNotFound):
		return fasthttp.StatusNotFound
	case errors.Is(err, inbox.ErrClosed),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return fasthttp.StatusServiceUnavailable
	default:
		return fasthttp.StatusInternalServerError
	}
}

func writeError(ctx *fasthttp.RequestCtx, err error) {
	status := statusFor(err)
	if status == fasthttp.StatusInternalServerError {
		logger.Error("request_failed", "path", string(ctx.Path()), "error", err)
	}
	router.WriteJSONError(ctx, status, err.Error())
}
