package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type metricsServer struct {
	cancel context.CancelFunc
	stopCh chan struct{}
}

// serveMetrics exposes reg on addr under /metrics until ctx is done or
// Shutdown is called.
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, log *zap.Logger) *metricsServer {
	ctx, cancel := context.WithCancel(ctx)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		if err := server.Shutdown(context.Background()); err != nil {
			log.Error("metrics server shutdown", zap.Error(err))
		}
	}()

	ms := &metricsServer{
		cancel: cancel,
		stopCh: make(chan struct{}),
	}
	go func() {
		defer close(ms.stopCh)
		log.Info("serving metrics", zap.String("addr", addr))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server", zap.Error(err))
		}
	}()
	return ms
}

func (ms *metricsServer) Shutdown() {
	ms.cancel()
	<-ms.stopCh
}
