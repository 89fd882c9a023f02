package requestctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogAttrs(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, LogAttrs(ctx))
	assert.Equal(t, "", GetRequestID(ctx))

	ctx = WithRequestID(ctx, "req-1")
	assert.Equal(t, []any{"requestId", "req-1"}, LogAttrs(ctx))

	ctx = WithClientIP(ctx, "10.1.2.3")
	assert.Equal(t, "10.1.2.3", GetClientIP(ctx))
	assert.Equal(t, []any{"requestId", "req-1", "clientIp", "10.1.2.3"}, LogAttrs(ctx))
}
