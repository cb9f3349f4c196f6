package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"cursor-keeper/cmd/root"
	"cursor-keeper/controllers"
	"cursor-keeper/internal/config"
	"cursor-keeper/internal/env"
	"cursor-keeper/internal/logger"
	"cursor-keeper/internal/middleware"
	"cursor-keeper/services"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var optAddress string

var serverCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"server"},
	Short:   "启动HTTP服务",
	Long:    "启动HTTP服务，提供版本状态、版本列表、更新、激活接口以及 /healthz 和 /metrics",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return startServer(cmd.Context())
	},
}

/**
 * Build the gin engine with all routes
 * @param {*services.Server} server - Shared server state
 * @returns {*gin.Engine} Router ready to serve
 */
func NewRouter(server *services.Server) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.MetricsMiddleware())
	controllers.NewAPIController(server).RegisterRoutes(router)
	controllers.NewVersionController(server).RegisterRoutes(router)
	return router
}

func listenAddrs(cfg *config.ServerConfig) []ListenAddr {
	var addrs []ListenAddr
	address := cfg.Address
	if optAddress != "" {
		address = optAddress
	}
	if address != "" {
		addrs = append(addrs, ListenAddr{Network: "tcp", Address: address})
	}
	if cfg.Socket != "" && IsUnixSocketSupported() {
		addrs = append(addrs, ListenAddr{Network: "unix", Address: env.ExpandHome(cfg.Socket)})
	}
	return addrs
}

/**
 * Serve the HTTP API until ctx is cancelled
 * @param {context.Context} ctx - Cancelled on SIGINT/SIGTERM
 * @returns {error} Listener or serve error
 * @description
 * - Listens on the TCP address and, when configured, a unix socket
 * - Shuts down gracefully with a 5 second deadline
 */
func startServer(ctx context.Context) error {
	gin.SetMode(config.Config.Server.Mode)
	env.Daemon = true
	server := services.NewServer(&config.Config, services.GetUpdateManager())
	httpServer := &http.Server{Handler: NewRouter(server)}

	listeners, err := CreateListeners(listenAddrs(&config.Config.Server))
	if len(listeners) == 0 {
		if err == nil {
			err = errors.New("no listen address configured")
		}
		return fmt.Errorf("启动服务失败: %w", err)
	}

	var wg sync.WaitGroup
	errCh := make(chan error, len(listeners))
	for _, l := range listeners {
		wg.Add(1)
		go func(l net.Listener) {
			defer wg.Done()
			logger.Infof("Listening on %s://%s", l.Addr().Network(), l.Addr().String())
			if err := httpServer.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}(l)
	}

	select {
	case <-ctx.Done():
		logger.Info("Shutting down HTTP server")
		err = nil
	case err = <-errCh:
		logger.Errorf("HTTP server failed: %v", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if serr := httpServer.Shutdown(shutdownCtx); serr != nil {
		logger.Warnf("Shutdown HTTP server: %v", serr)
	}
	wg.Wait()
	return err
}

func init() {
	serverCmd.Flags().StringVarP(&optAddress, "address", "a", "", "监听地址，覆盖 server.address")
	root.RootCmd.AddCommand(serverCmd)
}
