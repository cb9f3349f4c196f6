package services

import (
	"context"
	"sync"
	"time"

	"cursor-keeper/internal/config"
	"cursor-keeper/internal/env"
	"cursor-keeper/internal/logger"
	"cursor-keeper/internal/metrics"
	"cursor-keeper/internal/models"
)

/**
 * HTTP server side state
 * @description
 * - Core operations run one at a time, two update requests never race the pointer
 */
type Server struct {
	cfg       *config.AppConfig
	updates   *UpdateManager
	startTime time.Time
	mu        sync.Mutex
}

/**
 * Create new server instance
 * @param {config.AppConfig} cfg - Application configuration
 * @param {*UpdateManager} updates - Manager executing the operations
 * @returns {Server} Returns new server instance
 */
func NewServer(cfg *config.AppConfig, updates *UpdateManager) *Server {
	return &Server{
		cfg:       cfg,
		updates:   updates,
		startTime: time.Now(),
	}
}

func (s *Server) Updates() *UpdateManager {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updates
}

/**
 * Re-read the configuration file and rebuild the manager from it
 * @returns {error} Returns the load error, the running manager is kept in that case
 * @description
 * - Waits for the operation in progress, the next one sees the new paths and timeouts
 * - The shared manager returned by GetUpdateManager is replaced as well
 */
func (s *Server) Reload() error {
	if err := config.ReloadConfig(); err != nil {
		return err
	}
	m := NewUpdateManager(config.Current())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = m
	updateManager = m
	logger.Infof("Configuration reloaded, pointer '%s', downloads '%s'",
		m.settings.PointerPath, m.settings.DownloadsDir)
	return nil
}

// Status returns versions, advice and launch details.
func (s *Server) Status(ctx context.Context) models.StatusResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.updates.Status(ctx)
	return models.StatusResponse{
		Versions: st,
		Advice:   Advice(st),
		Launch:   s.updates.LaunchInfo(ctx),
	}
}

func (s *Server) Versions(ctx context.Context) []models.VersionRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updates.ListVersions(ctx)
}

func (s *Server) Update(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updates.Update(ctx, nil)
}

func (s *Server) Activate(ctx context.Context, ver string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updates.Select(ctx, ver)
}

/**
* Get server health status
* @returns {models.HealthResponse} Version, uptime and request counters
* @description
* - Used for health check endpoint and monitoring
* - Only counts local artifacts, no network access
 */
func (s *Server) GetHealthz(ctx context.Context) models.HealthResponse {
	// 计算服务运行时间
	uptime := time.Since(s.startTime)
	total, failed := metrics.RequestCounts()

	return models.HealthResponse{
		Version:   env.Version,
		StartTime: s.startTime.Format(time.RFC3339),
		Status:    "UP",
		Uptime:    uptime.String(),
		Metrics: models.Metrics{
			TotalRequests: total,
			ErrorRequests: failed,
			LocalVersions: len(s.Updates().local.LocalVersions(ctx)),
		},
	}
}
