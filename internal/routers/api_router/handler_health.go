package api_router

import (
	"context"
	"time"

	"github.com/haierkeys/block-note-service/internal/app"
	pkgapp "github.com/haierkeys/block-note-service/pkg/app"
	"github.com/haierkeys/block-note-service/pkg/code"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
)

// HealthHandler 健康检查处理器
type HealthHandler struct {
	*Handler
}

// NewHealthHandler 创建健康检查处理器实例
func NewHealthHandler(a *app.App) *HealthHandler {
	return &HealthHandler{Handler: NewHandler(a)}
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status   string      `json:"status"`   // "healthy" 或 "unhealthy"
	Version  string      `json:"version"`  // 服务版本号
	Uptime   float64     `json:"uptime"`   // 运行时间（秒）
	Database string      `json:"database"` // "connected" 或 "error"
	Host     *HostReport `json:"host,omitempty"`
}

// HostReport 主机内存与负载
type HostReport struct {
	MemoryTotal       uint64  `json:"memoryTotal"`
	MemoryUsed        uint64  `json:"memoryUsed"`
	MemoryUsedPercent float64 `json:"memoryUsedPercent"`
	Load1             float64 `json:"load1"`
	Load5             float64 `json:"load5"`
	Load15            float64 `json:"load15"`
}

// hostReport is best effort, figures the platform cannot provide stay zero
func hostReport(ctx context.Context) *HostReport {
	r := &HostReport{}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		r.MemoryTotal = vm.Total
		r.MemoryUsed = vm.Used
		r.MemoryUsedPercent = vm.UsedPercent
	}
	if avg, err := load.AvgWithContext(ctx); err == nil {
		r.Load1, r.Load5, r.Load15 = avg.Load1, avg.Load5, avg.Load15
	}
	return r
}

// Check GET /api/health
// 检查服务健康状态，包括数据库连接
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:   "healthy",
		Version:  h.App.Version().Version,
		Uptime:   h.App.Uptime().Seconds(),
		Database: "connected",
		Host:     hostReport(ctx),
	}

	if err := h.App.Ping(ctx); err != nil {
		h.logError(ctx, "HealthHandler.Check", err)
		response.Status = "unhealthy"
		response.Database = "error"
		pkgapp.NewResponse(c).ToJSON(code.ErrorServerInternal, response)
		return
	}

	pkgapp.NewResponse(c).ToJSON(code.Success, response)
}
