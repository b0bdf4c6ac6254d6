package httpcontext

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	appLogger "github.com/taskdeck/backend/pkg/logger"
)

// Adapter derives a stdlib context from a fasthttp request: a per-request
// deadline plus the request and tenant ids the logging layer reads back
// out via logger.FromContext.
type Adapter struct {
	timeout time.Duration
}

// NewAdapter constructs an Adapter with the given per-request timeout.
func NewAdapter(timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Adapter{timeout: timeout}
}

// Attach builds the request-scoped context. The request id is echoed back
// on the response so clients can correlate log lines.
func (a *Adapter) Attach(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	stdCtx, cancel := context.WithTimeout(context.Background(), a.timeout)

	reqID := requestID(ctx)
	stdCtx = appLogger.ContextWithRequestID(stdCtx, reqID)
	ctx.Response.Header.Set("X-Request-ID", reqID)

	if tenantID := string(ctx.Request.Header.Peek("X-Tenant-ID")); tenantID != "" {
		stdCtx = appLogger.ContextWithTenantID(stdCtx, tenantID)
	}

	return stdCtx, cancel
}

func requestID(ctx *fasthttp.RequestCtx) string {
	if ctx != nil {
		if header := strings.TrimSpace(string(ctx.Request.Header.Peek("X-Request-ID"))); header != "" {
			return header
		}
	}
	return uuid.NewString()
}
