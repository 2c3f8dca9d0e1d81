package observability

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogContextChaining(t *testing.T) {
	ctx := context.Background()
	ctx = WithBuildID(ctx, "build-1")
	ctx = WithTrigger(ctx, "file change")
	ctx = WithActivity(ctx, 4)
	ctx = WithBuildID(ctx, "build-2")

	assert.Equal(t, LogContext{BuildID: "build-2", Trigger: "file change", Activity: 4}, GetContext(ctx))
	assert.Equal(t, LogContext{}, GetContext(context.Background()))
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	assert.Same(t, base, Logger(context.Background(), base))

	ctx := WithActivity(WithBuildID(context.Background(), "b-1"), 3)
	Logger(ctx, base).Info("resolved")
	assert.Contains(t, buf.String(), "build_id=b-1")
	assert.Contains(t, buf.String(), "activity=3")
}
