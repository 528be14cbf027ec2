package api

import (
	"net/http"

	"SceneForge-studio/models"

	"github.com/gin-gonic/gin"
)

// 更新当前项目里的某一帧(prompt / notes / 参数)。
// 请求体 JSON 非法时直接 400, 原状态不动。
func (h *Handler) UpdateFrame(c *gin.Context) {
	frameID := c.Param("frame_id")

	var req struct {
		Prompt *string             `json:"prompt"`
		Notes  *string             `json:"notes"`
		Params *models.FrameParams `json:"params"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid frame payload: " + err.Error()})
		return
	}

	current := h.Store.CurrentProject()
	if current == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no current project"})
		return
	}
	idx := current.FrameIndex(frameID)
	if idx < 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "frame not found"})
		return
	}

	frame := current.Frames[idx]
	if req.Prompt != nil {
		frame.Prompt = *req.Prompt
	}
	if req.Notes != nil {
		frame.Notes = *req.Notes
	}
	if req.Params != nil {
		frame.Params = *req.Params
	}
	h.Store.UpdateFrame(frame)

	c.JSON(http.StatusOK, gin.H{"frame": frame})
}

// 删除帧。没有当前项目或帧不存在时 Store 静默忽略。
func (h *Handler) DeleteFrame(c *gin.Context) {
	frameID := c.Param("frame_id")
	h.Store.DeleteFrame(frameID)
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"frame_id": frameID,
	})
}

// 选中帧
func (h *Handler) SelectFrame(c *gin.Context) {
	frameID := c.Param("frame_id")
	h.Store.SelectFrame(frameID)
	c.JSON(http.StatusOK, gin.H{"selectedFrameId": frameID})
}

// 按拖拽结果重排帧序列。frame_ids 是否为真排列不校验。
func (h *Handler) ReorderFrames(c *gin.Context) {
	var req struct {
		FrameIDs []string `json:"frame_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	current := h.Store.CurrentProject()
	if current == nil {
		c.JSON(http.StatusOK, gin.H{"frames": []models.Frame{}})
		return
	}

	reordered := make([]models.Frame, 0, len(req.FrameIDs))
	for _, id := range req.FrameIDs {
		if idx := current.FrameIndex(id); idx >= 0 {
			reordered = append(reordered, current.Frames[idx])
		}
	}
	h.Store.ReorderFrames(reordered)

	c.JSON(http.StatusOK, gin.H{"frames": reordered})
}
