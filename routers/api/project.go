package api

import (
	"net/http"
	"time"

	"SceneForge-studio/models"

	"github.com/gin-gonic/gin"
)

// 列出全部项目
func (h *Handler) ListProjects(c *gin.Context) {
	projects := h.Store.Projects()
	c.JSON(http.StatusOK, gin.H{
		"projects": projects,
		"total":    len(projects),
	})
}

// 创建项目
func (h *Handler) CreateProject(c *gin.Context) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Genre       string `json:"genre"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	if req.Genre == "" {
		req.Genre = models.GenreNoir
	}

	project := h.Store.CreateProject(req.Name, req.Description, req.Genre)
	c.JSON(http.StatusOK, gin.H{"project": project})
}

// 获取项目详情
func (h *Handler) GetProject(c *gin.Context) {
	projectID := c.Param("project_id")

	project, ok := h.Store.Project(projectID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": project})
}

// 更新项目元信息(只更新请求里给出的字段)
func (h *Handler) UpdateProject(c *gin.Context) {
	projectID := c.Param("project_id")

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Genre       string `json:"genre"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, ok := h.Store.Project(projectID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}

	if req.Name != "" {
		project.Name = req.Name
	}
	if req.Description != "" {
		project.Description = req.Description
	}
	if req.Genre != "" {
		project.Genre = req.Genre
	}
	project.UpdatedAt = time.Now()
	h.Store.UpdateProject(*project)

	c.JSON(http.StatusOK, gin.H{"project": project})
}

// 删除项目
func (h *Handler) DeleteProject(c *gin.Context) {
	projectID := c.Param("project_id")
	h.Store.DeleteProject(projectID)
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"project_id": projectID,
		"deleteAt":   time.Now(),
	})
}

// 切换当前项目
func (h *Handler) SelectProject(c *gin.Context) {
	projectID := c.Param("project_id")

	project, ok := h.Store.Project(projectID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}
	h.Store.SetCurrentProject(project)
	// 换项目时选中帧失效
	h.Store.SelectFrame("")
	c.JSON(http.StatusOK, gin.H{"currentProject": project})
}
