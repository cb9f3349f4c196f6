package controllers

import (
	"errors"
	"net/http"

	"cursor-keeper/internal/activation"
	"cursor-keeper/internal/models"
	"cursor-keeper/internal/store"
	"cursor-keeper/internal/version"
	"cursor-keeper/services"

	"github.com/gin-gonic/gin"
)

type VersionController struct {
	server *services.Server
}

func NewVersionController(server *services.Server) *VersionController {
	return &VersionController{
		server: server,
	}
}

/**
 * Register version routes to Gin router
 * @param {*gin.Engine} r - Gin router instance
 * @description
 * - Registers routes for:
 *   - Version status and listing
 *   - Update to latest and activation of a downloaded version
 */
func (v *VersionController) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	api.GET("/status", v.Status)
	api.GET("/versions", v.ListVersions)
	api.POST("/update", v.Update)
	api.POST("/versions/:version/activate", v.Activate)
}

// @Summary 查看版本状态
// @Description 当前激活版本、本地最新版本、远端最新版本，以及更新建议和启动配置
// @Tags Versions
// @Produce json
// @Success 200 {object} models.StatusResponse
// @Router /api/v1/status [get]
func (v *VersionController) Status(c *gin.Context) {
	c.JSON(http.StatusOK, v.server.Status(c.Request.Context()))
}

// @Summary 获取版本列表
// @Description 远端与本地版本的并集，按版本号从新到旧排列
// @Tags Versions
// @Produce json
// @Success 200 {array} models.VersionRow
// @Router /api/v1/versions [get]
func (v *VersionController) ListVersions(c *gin.Context) {
	rows := v.server.Versions(c.Request.Context())
	if rows == nil {
		rows = []models.VersionRow{}
	}
	c.JSON(http.StatusOK, rows)
}

// @Summary 更新到最新版本
// @Description 必要时下载最新版本，然后激活
// @Tags Versions
// @Produce json
// @Success 200 {object} models.ActivateResponse
// @Failure 502 {object} models.ErrorResponse "{"code": "update.latest_unknown", "message": "..."}"
// @Router /api/v1/update [post]
func (v *VersionController) Update(c *gin.Context) {
	ver, err := v.server.Update(c.Request.Context())
	if err != nil {
		status, code := errorCode(err)
		c.JSON(status, models.ErrorResponse{Code: code, Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, models.ActivateResponse{Status: "success", Version: ver})
}

// @Summary 激活版本
// @Description 将已下载的指定版本设为当前版本
// @Tags Versions
// @Param version path string true "版本号"
// @Success 200 {object} models.ActivateResponse
// @Failure 404 {object} models.ErrorResponse "{"code": "activation.artifact_missing", "message": "..."}"
// @Router /api/v1/versions/{version}/activate [post]
func (v *VersionController) Activate(c *gin.Context) {
	ver := c.Param("version")
	if err := v.server.Activate(c.Request.Context(), ver); err != nil {
		status, code := errorCode(err)
		c.JSON(status, models.ErrorResponse{Code: code, Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, models.ActivateResponse{Status: "success", Version: ver})
}

// errorCode maps a core error to an HTTP status and a stable error code.
func errorCode(err error) (int, string) {
	switch {
	case errors.Is(err, version.ErrInvalidVersion):
		return http.StatusBadRequest, "version.invalid"
	case errors.Is(err, services.ErrLatestUnknown):
		return http.StatusBadGateway, "update.latest_unknown"
	case errors.Is(err, store.ErrNoDownloadURL):
		return http.StatusNotFound, "download.no_url"
	case errors.Is(err, store.ErrDownloadFailed):
		return http.StatusBadGateway, "download.failed"
	case errors.Is(err, activation.ErrArtifactMissing):
		return http.StatusNotFound, "activation.artifact_missing"
	case errors.Is(err, activation.ErrActivationFailed):
		return http.StatusInternalServerError, "activation.failed"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
