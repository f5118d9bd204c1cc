package requestcontext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	assert.Equal(t, "req-1", RequestID(ctx))

	assert.Empty(t, RequestID(context.Background()))
	assert.Equal(t, context.Background(), WithRequestID(context.Background(), ""))
}

func TestUserID(t *testing.T) {
	ctx := WithUserID(WithRequestID(context.Background(), "req-1"), "user-1")
	assert.Equal(t, "user-1", UserID(ctx))
	assert.Equal(t, "req-1", RequestID(ctx))

	assert.Empty(t, UserID(context.Background()))
}
