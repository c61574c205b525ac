package context

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// 上下文键类型
type contextKey string

const (
	TraceIDKey   contextKey = "trace_id"
	UserIDKey    contextKey = "user_id"
	TargetIDKey  contextKey = "target_id"
	AlbumIDKey   contextKey = "album_id"
	RequestIDKey contextKey = "request_id"

	ServiceNameKey contextKey = "service_name"
)

// WithTraceID 在context中设置TraceID
func WithTraceID(ctx context.Context, traceID string) context.Context {
	if traceID == "" {
		traceID = GenerateTraceID()
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(attribute.String("trace.id", traceID))
	}

	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID 从context中获取TraceID
func GetTraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	// 优先从OpenTelemetry span中获取
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		return span.SpanContext().TraceID().String()
	}

	if traceID, ok := ctx.Value(TraceIDKey).(string); ok {
		return traceID
	}

	return ""
}

// WithUserID 在context中设置当前用户ID
func WithUserID(ctx context.Context, userID int64) context.Context {
	if userID <= 0 {
		return ctx
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(attribute.Int64("user.id", userID))
	}

	return context.WithValue(ctx, UserIDKey, userID)
}

// GetUserID 从context中获取当前用户ID
func GetUserID(ctx context.Context) int64 {
	if ctx == nil {
		return 0
	}
	if userID, ok := ctx.Value(UserIDKey).(int64); ok {
		return userID
	}
	return 0
}

// WithTargetID 在context中设置关注目标用户ID
func WithTargetID(ctx context.Context, targetID int64) context.Context {
	if targetID <= 0 {
		return ctx
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(attribute.Int64("target.id", targetID))
	}

	return context.WithValue(ctx, TargetIDKey, targetID)
}

// GetTargetID 从context中获取关注目标用户ID
func GetTargetID(ctx context.Context) int64 {
	if ctx == nil {
		return 0
	}
	if targetID, ok := ctx.Value(TargetIDKey).(int64); ok {
		return targetID
	}
	return 0
}

// WithAlbumID 在context中设置专辑ID
func WithAlbumID(ctx context.Context, albumID int64) context.Context {
	if albumID <= 0 {
		return ctx
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(attribute.Int64("album.id", albumID))
	}

	return context.WithValue(ctx, AlbumIDKey, albumID)
}

// GetAlbumID 从context中获取专辑ID
func GetAlbumID(ctx context.Context) int64 {
	if ctx == nil {
		return 0
	}
	if albumID, ok := ctx.Value(AlbumIDKey).(int64); ok {
		return albumID
	}
	return 0
}

// WithRequestID 在context中设置RequestID
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		requestID = GenerateRequestID()
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(attribute.String("request.id", requestID))
	}

	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID 从context中获取RequestID
func GetRequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithServiceName 在context中设置服务名
func WithServiceName(ctx context.Context, serviceName string) context.Context {
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(attribute.String("service.name", serviceName))
	}
	return context.WithValue(ctx, ServiceNameKey, serviceName)
}

// GetServiceName 从context中获取服务名
func GetServiceName(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if serviceName, ok := ctx.Value(ServiceNameKey).(string); ok {
		return serviceName
	}
	return ""
}

// GenerateTraceID 生成TraceID
func GenerateTraceID() string {
	return uuid.New().String()
}

// GenerateRequestID 生成RequestID
func GenerateRequestID() string {
	return uuid.New().String()
}
