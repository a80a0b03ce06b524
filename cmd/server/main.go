// Command pairchat-server runs the PairChat gRPC API and its WebSocket gateway.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/and161185/pairchat/api/chatv1"
	"github.com/and161185/pairchat/internal/auth"
	"github.com/and161185/pairchat/internal/config"
	"github.com/and161185/pairchat/internal/limiter"
	"github.com/and161185/pairchat/internal/migrate"
	"github.com/and161185/pairchat/internal/realtime"
	"github.com/and161185/pairchat/internal/repository/postgres"
	grpcserver "github.com/and161185/pairchat/internal/server/grpc"
	wsserver "github.com/and161185/pairchat/internal/server/ws"
	"github.com/and161185/pairchat/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "pairchat-server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Args[1:], ".env")
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Dev)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("grpc", cfg.GRPCAddr),
		zap.String("ws", cfg.WSAddr),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrate.Up(ctx, cfg.DatabaseDSN); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("pgxpool: %w", err)
	}
	defer pool.Close()

	// Repositories
	db := &postgres.DB{Pool: pool}
	userRepo := postgres.NewUserRepo(db)
	chatRepo := postgres.NewChatRepo(db)
	requestRepo := postgres.NewRequestRepo(db)
	messageRepo := postgres.NewMessageRepo(db)

	lim := limiter.NewPostgres(pool, limiter.Policy{
		Window:   cfg.LoginWindow,
		MaxFails: cfg.LoginMaxFails,
		BlockFor: cfg.LoginBlockFor,
	})
	tokens := auth.NewTokens([]byte(cfg.JWTKey), cfg.AccessTTL, userRepo)

	hub := realtime.NewHub(logger,
		&realtime.RepoStore{Users: userRepo, Chats: chatRepo, Messages: messageRepo},
		realtime.WithSessionBuffer(cfg.SessionBuffer),
		realtime.WithTeardownTimeout(cfg.TeardownTimeout),
	)

	// Services
	authSvc := service.NewAuthService(userRepo, tokens, lim, &service.LogMailer{Log: logger}, cfg.ResetTokenTTL)
	chatSvc := service.NewChatService(logger, userRepo, chatRepo, requestRepo, hub.Notifier)

	gs, err := newGRPCServer(cfg, logger, tokens)
	if err != nil {
		return err
	}
	chatv1.RegisterPairChatServer(gs, grpcserver.New(logger, authSvc, chatSvc, hub))
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	if cfg.Dev {
		reflection.Register(gs)
	}

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.GRPCAddr, err)
	}

	var hsrv *http.Server
	if cfg.WSAddr != "" {
		gw := wsserver.New(logger, tokens, hub, func(r *http.Request) bool {
			return cfg.OriginAllowed(r.Header.Get("Origin"))
		})
		hsrv = &http.Server{
			Addr:              cfg.WSAddr,
			Handler:           gw.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("grpc listening", zap.String("addr", cfg.GRPCAddr), zap.Bool("tls", cfg.TLS()))
		if err := gs.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc serve: %w", err)
		}
		return nil
	})
	if hsrv != nil {
		g.Go(func() error {
			logger.Info("ws listening", zap.String("addr", cfg.WSAddr))
			if err := hsrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("ws serve: %w", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		hs.Shutdown()
		// Closing the hub ends every live stream so GracefulStop can finish.
		hub.Close()

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if hsrv != nil {
			if err := hsrv.Shutdown(sctx); err != nil {
				logger.Warn("ws shutdown", zap.Error(err))
			}
		}
		done := make(chan struct{})
		go func() {
			gs.GracefulStop()
			close(done)
		}()
		select {
		case <-done:
		case <-sctx.Done():
			gs.Stop()
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func newGRPCServer(cfg *config.Config, logger *zap.Logger, v grpcserver.Verifier) (*grpc.Server, error) {
	opts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			grpcserver.RecoverUnary(logger),
			grpcserver.LoggingUnary(logger),
			grpcserver.AuthUnary(v),
		),
		grpc.ChainStreamInterceptor(
			grpcserver.RecoverStream(logger),
			grpcserver.LoggingStream(logger),
			grpcserver.AuthStream(v),
		),
	}
	if cfg.TLS() {
		creds, err := credentials.NewServerTLSFromFile(cfg.TLSCert, cfg.TLSKey)
		if err != nil {
			return nil, fmt.Errorf("load TLS cert/key: %w", err)
		}
		opts = append(opts, grpc.Creds(creds))
	} else {
		logger.Warn("TLS disabled; serving plaintext gRPC")
	}
	return grpc.NewServer(opts...), nil
}
