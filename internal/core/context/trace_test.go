package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTraceRoundtrip(t *testing.T) {
	ctx := WithTrace(context.Background(), Trace{
		TraceID:   "trace-1",
		RequestID: "req-1",
	})

	got, ok := GetTrace(ctx)
	assert.True(t, ok)
	assert.Equal(t, "trace-1", got.TraceID)
	assert.Equal(t, "req-1", got.RequestID)
	assert.Equal(t, "req-1", RequestID(ctx))
}

func TestTraceAbsent(t *testing.T) {
	_, ok := GetTrace(context.Background())
	assert.False(t, ok)
	assert.Equal(t, "", RequestID(context.Background()))
}
