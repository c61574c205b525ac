package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// withSpanRecorder 安装可回放的tracer provider，测试结束后还原
func withSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(previous) })
	return recorder
}

func findSpan(spans []sdktrace.ReadOnlySpan, name string) sdktrace.ReadOnlySpan {
	for _, s := range spans {
		if s.Name() == name {
			return s
		}
	}
	return nil
}

func TestFollowRecordsSpan(t *testing.T) {
	recorder := withSpanRecorder(t)
	svc, fake := newTestService()
	ctx := context.Background()
	fake.addProfile(1, "alice", false)
	fake.addProfile(2, "bob", false)

	require.NoError(t, svc.Follow(ctx, 1, 2))

	span := findSpan(recorder.Ended(), "social.service.Follow")
	require.NotNil(t, span)
	assert.Contains(t, span.Attributes(), attribute.Int64("follow.actor_id", 1))
	assert.Contains(t, span.Attributes(), attribute.Int64("follow.target_id", 2))
}

func TestRequestLifecycleRecordsSpans(t *testing.T) {
	recorder := withSpanRecorder(t)
	svc, fake := newTestService()
	ctx := context.Background()
	fake.addProfile(1, "alice", false)
	fake.addProfile(2, "bob", true)

	req, err := svc.Request(ctx, 1, 2)
	require.NoError(t, err)
	_, err = svc.Accept(ctx, 2, req.ID)
	require.NoError(t, err)

	spans := recorder.Ended()
	require.NotNil(t, findSpan(spans, "social.service.Request"))

	accept := findSpan(spans, "social.service.Accept")
	require.NotNil(t, accept)
	assert.Contains(t, accept.Attributes(), attribute.Int64("follow.request_id", req.ID))
}
