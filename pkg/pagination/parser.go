package pagination

import (
	"strconv"
	"strings"

	"github.com/valyala/fasthttp"
)

// CursorRequest holds the id-cursor query parameters of a message listing.
type CursorRequest struct {
	Before   uint64
	PageSize int
}

// OffsetRequest holds the numbered-page query parameters of a thread listing.
type OffsetRequest struct {
	Page     int
	PageSize int
}

func parsePageSize(ctx *fasthttp.RequestCtx) int {
	s := strings.TrimSpace(string(ctx.QueryArgs().Peek("pageSize")))
	if s == "" {
		s = strings.TrimSpace(string(ctx.QueryArgs().Peek("limit")))
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return DefaultPageSize
	}
	if n > MaxPageSize {
		return MaxPageSize
	}
	return n
}

// ParseCursorRequest reads ?before=<id>&pageSize=<n>. Malformed values fall
// back to defaults.
func ParseCursorRequest(ctx *fasthttp.RequestCtx) CursorRequest {
	req := CursorRequest{PageSize: parsePageSize(ctx)}
	if s := strings.TrimSpace(string(ctx.QueryArgs().Peek("before"))); s != "" {
		if id, err := strconv.ParseUint(s, 10, 64); err == nil {
			req.Before = id
		}
	}
	return req
}

// ParseOffsetRequest reads ?page=<n>&pageSize=<n>.
func ParseOffsetRequest(ctx *fasthttp.RequestCtx) OffsetRequest {
	req := OffsetRequest{PageSize: parsePageSize(ctx)}
	if s := strings.TrimSpace(string(ctx.QueryArgs().Peek("page"))); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 {
			req.Page = n
		}
	}
	return req
}
