package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 导出分镜板, 返回带时效的下载链接
func (h *Handler) ExportProject(c *gin.Context) {
	projectID := c.Param("project_id")

	var req struct {
		Format string `json:"format"`
	}
	_ = c.ShouldBindJSON(&req)

	project, ok := h.Store.Project(projectID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}
	if len(project.Frames) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no frames to export"})
		return
	}
	if h.Exporter == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "export storage not configured"})
		return
	}

	result, err := h.Exporter.ExportProject(c.Request.Context(), *project, req.Format)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "导出失败: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// 用 backendId 向生成服务申请分享链接
func (h *Handler) ShareProject(c *gin.Context) {
	projectID := c.Param("project_id")

	var req struct {
		ExpiresInDays int `json:"expires_in_days"`
	}
	_ = c.ShouldBindJSON(&req)
	if req.ExpiresInDays <= 0 {
		req.ExpiresInDays = 30
	}

	project, ok := h.Store.Project(projectID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}
	if project.BackendID == "" {
		// 本地项目还没有生成服务侧的记录, 无从分享
		c.JSON(http.StatusConflict, gin.H{"error": "project has no backend record yet"})
		return
	}

	share, err := h.Worker.CreateShareLink(c.Request.Context(), project.BackendID, req.ExpiresInDays)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "创建分享链接失败: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, share)
}
