package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/groupfun/internal/db"
	"github.com/groupfun/internal/handler"
	"github.com/groupfun/internal/router"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动 HTTP 服务",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		gdb, engine, err := openEngine()
		if err != nil {
			return err
		}
		defer db.Close(gdb)

		// 启动时清理一次过期消息，失败不阻止启动
		if removed, err := engine.PurgeExpired(ctx); err != nil {
			log.Warn("purge expired messages failed", "error", err)
		} else {
			log.Info("purged expired messages", "removed", removed, "retention_days", cfg.RetentionDays)
		}

		gin.SetMode(cfg.GinMode)
		api := handler.NewAPI(gdb, engine, handler.Options{
			Language:        cfg.ReplyLanguage,
			IngestTokenHash: cfg.IngestTokenHash,
			Logger:          log,
		})
		if cfg.IngestTokenHash == "" {
			log.Warn("INGEST_TOKEN_HASH not set, ingest endpoints are unauthenticated")
		}

		srv := &http.Server{
			Addr:    cfg.ListenAddr,
			Handler: router.SetupRouter(api),
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info("server listening", "addr", cfg.ListenAddr, "timezone", cfg.Timezone)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down server")
		return srv.Shutdown(shutdownCtx)
	},
}
