package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/joseph-ayodele/course-grounding/constants"
	"github.com/joseph-ayodele/course-grounding/internal/app"
	"github.com/joseph-ayodele/course-grounding/internal/async"
	"github.com/joseph-ayodele/course-grounding/internal/common"
	"github.com/joseph-ayodele/course-grounding/internal/repository"
)

const serviceName = "coursegrounding.Extraction"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, os.Stdout)
	if err != nil {
		slog.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer a.Close()
	logger := a.Log
	wcfg := a.Cfg.Worker

	queue := async.NewRunQueue(&parkingRunner{runner: a.Orchestrator, store: a.Store, logger: logger}, logger,
		async.WithWorkers(wcfg.Workers),
		async.WithQueueSize(wcfg.QueueSize),
		async.WithRunTimeout(wcfg.RunTimeout),
	)
	poller := async.NewPoller(func(ctx context.Context) ([]uuid.UUID, error) {
		return a.Store.Repos().Requests.ListByStatus(ctx, constants.RequestStatusExtractionQueued, wcfg.QueueSize)
	}, queue, wcfg.PollInterval, logger)

	// gRPC server
	grpcServer := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)
	// Reflection for grpcurl
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", wcfg.HealthAddr)
	if err != nil {
		logger.Error("listen failed", "addr", wcfg.HealthAddr, "error", err)
		os.Exit(1)
	}
	go func() {
		logger.Info("health service listening", "addr", lis.Addr().String())
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			logger.Error("grpc serve failed", "error", err)
			stop()
		}
	}()

	// watch the database; report NOT_SERVING while it is unreachable
	go func() {
		t := time.NewTicker(30 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				status := healthpb.HealthCheckResponse_SERVING
				if err := a.DB.HealthCheck(ctx, 3*time.Second, logger); err != nil {
					status = healthpb.HealthCheckResponse_NOT_SERVING
				}
				hs.SetServingStatus(serviceName, status)
			}
		}
	}()

	logger.Info("extraction worker started",
		"workers", wcfg.Workers,
		"queue_size", wcfg.QueueSize,
		"poll_interval", wcfg.PollInterval.String(),
		"run_timeout", wcfg.RunTimeout.String(),
	)
	poller.Run(ctx)

	logger.Info("shutting down...")
	hs.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), wcfg.RunTimeout+30*time.Second)
	defer cancel()
	queue.Shutdown(shutdownCtx)
	grpcServer.GracefulStop()
	logger.Info("stopped")
}

// parkingRunner moves requests that cannot be extracted out of the queued state so the
// poller does not pick them up again.
type parkingRunner struct {
	runner async.Runner
	store  *repository.Store
	logger *slog.Logger
}

func (p *parkingRunner) Run(ctx context.Context, requestID uuid.UUID) (uuid.UUID, error) {
	runID, err := p.runner.Run(ctx, requestID)
	if err != nil && errors.Is(err, common.ErrNoActiveDocuments) {
		if serr := p.store.Repos().Requests.SetStatus(context.WithoutCancel(ctx), requestID, constants.RequestStatusNeedsInfo); serr != nil {
			p.logger.Error("failed to park request", "request_id", requestID, "error", serr)
		}
	}
	return runID, err
}
