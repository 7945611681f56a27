// cmd/server is the main entrypoint for a geomemdb node.
//
// Configuration is entirely via environment variables so a single binary
// can serve either role — see internal/config.
//
// Example — leader:
//
//	THIS_ADDR=127.0.0.1:6379 ./server
//
// Example — replica:
//
//	ROLE=replica THIS_ADDR=127.0.0.1:6380 LEADER_ADDR=127.0.0.1:6379 ./server
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"geomemdb/internal/api"
	"geomemdb/internal/cluster"
	"geomemdb/internal/config"
	"geomemdb/internal/geo"
	"geomemdb/internal/server"
	"geomemdb/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	persistence, err := store.Open(cfg.DataDir)
	if err != nil {
		log.Fatalf("FATAL: open persistence: %v", err)
	}
	defer persistence.Close()

	db := geo.New()
	node := cluster.NewNode(cluster.Config{
		Role:            cfg.Role,
		OwnAddr:         cfg.ThisAddr,
		LeaderAddr:      cfg.LeaderAddr,
		HeartbeatPeriod: cfg.HeartbeatPeriod,
		MonitorPeriod:   cfg.MonitorPeriod,
		DeadTimeout:     cfg.DeadTimeout,
	}, db, persistence)

	ctx, cancel := context.WithCancel(context.Background())
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Println("shutdown signal received")
		cancel()
	}()

	httpSrv := startDebugFacade(node, cfg.DebugAddr)
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		httpSrv.Shutdown(shutdownCtx)
	}()

	srv := server.New(server.Config{OwnAddr: cfg.ThisAddr}, node)
	if err := srv.Run(ctx); err != nil {
		log.Fatalf("FATAL: %v", err)
	}
}

// startDebugFacade mounts the read-only gin status façade on its own addr
// (DEBUG_ADDR) so it never collides with the line-protocol listener. It is
// genuinely optional glue: a failure to bind it is logged, not fatal, since
// the core database/replication engine does not depend on it.
func startDebugFacade(node *cluster.Node, addr string) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(node)

	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("debug facade on %s stopped: %v", addr, err)
		}
	}()

	return httpSrv
}
