package api

import (
	"context"
	"net/http"
	"strings"

	"SceneForge-studio/models"
	"SceneForge-studio/pkg/logger"
	"SceneForge-studio/service"

	"github.com/gin-gonic/gin"
)

// 触发一次分镜板生成。
// demo 模式直接在本进程跑模拟管线, 否则入队由 processor 消费。
func (h *Handler) Generate(c *gin.Context) {
	var req struct {
		Prompt string              `json:"prompt"`
		Genre  string              `json:"genre"`
		Params *models.FrameParams `json:"params"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prompt is required"})
		return
	}
	if req.Genre == "" {
		req.Genre = models.GenreNoir
	}
	params := models.DefaultFrameParams()
	if req.Params != nil {
		params = *req.Params
	}

	// 没有当前项目时隐式创建一个(首次生成)
	current := h.Store.CurrentProject()
	if current == nil {
		project := h.Store.CreateProject(sceneName(req.Prompt), req.Prompt, req.Genre)
		h.Store.SetCurrentProject(&project)
		current = &project
	}

	if h.Store.DemoMode() || h.Queue == nil {
		go func() {
			if _, err := h.Generator.Generate(context.Background(), req.Prompt, params, req.Genre); err != nil {
				logger.Errorf("生成任务执行失败: %v", err)
			}
		}()
	} else {
		err := h.Queue.EnqueueGeneration(service.GenerationPayload{
			Kind:   service.GenerationKindScene,
			Prompt: req.Prompt,
			Genre:  req.Genre,
			Params: params,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "任务入队失败: " + err.Error()})
			return
		}
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":     "accepted",
		"project_id": current.ID,
		"demo_mode":  h.Store.DemoMode(),
	})
}

// 重新生成单帧
func (h *Handler) RegenerateFrame(c *gin.Context) {
	frameID := c.Param("frame_id")

	var req struct {
		Params *models.FrameParams `json:"params"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
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
	params := current.Frames[idx].Params
	if req.Params != nil {
		params = *req.Params
	}

	if h.Store.DemoMode() || h.Queue == nil {
		go func() {
			if _, err := h.Generator.RegenerateFrame(context.Background(), frameID, params); err != nil {
				logger.Errorf("帧精修执行失败: %v", err)
			}
		}()
	} else {
		err := h.Queue.EnqueueGeneration(service.GenerationPayload{
			Kind:    service.GenerationKindRefine,
			FrameID: frameID,
			Params:  params,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "任务入队失败: " + err.Error()})
			return
		}
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":   "accepted",
		"frame_id": frameID,
	})
}

// 取消生成: 停掉本地轮询并尝试通知 worker 删除任务
func (h *Handler) CancelGeneration(c *gin.Context) {
	jobID := c.Param("job_id")

	cancelled := h.Generator.CancelGeneration(jobID)
	if cancelled {
		logger.Infof("Cancelled poll for job %s", jobID)
	}
	if err := h.Worker.CancelJob(jobID); err != nil {
		logger.Warnf("通知 worker 取消任务 %s 失败: %v", jobID, err)
	}

	c.JSON(http.StatusOK, gin.H{
		"job_id":    jobID,
		"cancelled": cancelled,
	})
}

// 创意场景建议。demo 模式或 worker 不可用时退回本地建议表。
func (h *Handler) SurpriseMe(c *gin.Context) {
	var req struct {
		CurrentGenre    string `json:"current_genre"`
		StylePreference string `json:"style_preference"`
	}
	_ = c.ShouldBindJSON(&req)
	if req.CurrentGenre == "" {
		req.CurrentGenre = models.GenreNoir
	}
	if req.StylePreference == "" {
		req.StylePreference = "cinematic"
	}

	if h.Store.DemoMode() {
		c.JSON(http.StatusOK, service.SurpriseFallback(req.CurrentGenre))
		return
	}

	suggestion, err := h.Worker.SurpriseMe(c.Request.Context(), req.CurrentGenre, req.StylePreference)
	if err != nil {
		logger.Warnf("创意建议请求失败, 使用本地建议表: %v", err)
		c.JSON(http.StatusOK, service.SurpriseFallback(req.CurrentGenre))
		return
	}
	c.JSON(http.StatusOK, suggestion)
}

// sceneName 隐式建项目时用 prompt 的前 50 个字符当名字
func sceneName(prompt string) string {
	runes := []rune(prompt)
	if len(runes) > 50 {
		return "Scene: " + string(runes[:50]) + "..."
	}
	return "Scene: " + prompt
}
