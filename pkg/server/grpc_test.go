package server

import (
	"io"
	"testing"

	kratoslog "github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc"

	"melodiary/pkg/config"
)

func newTestGRPCWrapper(interceptors ...grpc.UnaryServerInterceptor) *GRPCServerWrapper {
	cfg := &config.Config{}
	cfg.Server.GRPC.Addr = "127.0.0.1:0"
	return NewGRPCServerWrapper(cfg, kratoslog.NewStdLogger(io.Discard), interceptors...)
}

func TestGRPCServerRegistersHealthService(t *testing.T) {
	w := newTestGRPCWrapper()

	info := w.GetServer().GetServiceInfo()
	_, ok := info["grpc.health.v1.Health"]
	assert.True(t, ok)
}

func TestGRPCServerRegisterService(t *testing.T) {
	w := newTestGRPCWrapper()

	called := false
	w.RegisterService(func(s *grpc.Server) {
		called = true
		assert.Same(t, w.GetServer(), s)
	})
	assert.True(t, called)
}
