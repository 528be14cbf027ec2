package api

import (
	"net/http"

	"SceneForge-studio/service"
	"SceneForge-studio/store"

	"github.com/gin-gonic/gin"
)

// Handler 把 Store 与各服务对象注入给路由处理函数。
// 展示层只通过 Store 的操作读写状态, 不直接改字段。
type Handler struct {
	Store     *store.Store
	Generator *service.Generator
	Queue     *service.Queue
	Worker    *service.WorkerClient
	Exporter  *service.Exporter
}

func NewHandler(st *store.Store, gen *service.Generator, q *service.Queue, worker *service.WorkerClient, exporter *service.Exporter) *Handler {
	return &Handler{
		Store:     st,
		Generator: gen,
		Queue:     q,
		Worker:    worker,
		Exporter:  exporter,
	}
}

// GetState UI 启动时一次性拉取全量应用状态
func (h *Handler) GetState(c *gin.Context) {
	generating, progress := h.Store.GenerationState()
	c.JSON(http.StatusOK, gin.H{
		"projects":        h.Store.Projects(),
		"currentProject":  h.Store.CurrentProject(),
		"selectedFrameId": h.Store.SelectedFrameID(),
		"demoMode":        h.Store.DemoMode(),
		"isGenerating":    generating,
		"progress":        progress,
		"lastError":       h.Store.GenerationError(),
	})
}

// GetSettings 查询 demo 开关
func (h *Handler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"demoMode":     h.Store.DemoMode(),
		"isGenerating": h.Store.IsGenerating(),
	})
}

// SetDemoMode 切换 demo 模式, 不清空已有项目
func (h *Handler) SetDemoMode(c *gin.Context) {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.Store.SetDemoMode(req.Enabled)
	c.JSON(http.StatusOK, gin.H{"demoMode": req.Enabled})
}
