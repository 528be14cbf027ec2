package api

import (
	"net/http"
	"time"

	"SceneForge-studio/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// 进度快照。lastError 是最近一次失败的原因, 空串表示无
func (h *Handler) GenerationProgress(c *gin.Context) {
	generating, progress := h.Store.GenerationState()
	c.JSON(http.StatusOK, gin.H{
		"isGenerating": generating,
		"progress":     progress,
		"lastError":    h.Store.GenerationError(),
	})
}

// 生成进度 WebSocket 推送: 轮询 Store 并只在变化时下发,
// 一次生成收尾(回到 idle)后关闭连接。
func (h *Handler) ProgressWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "WebSocket升级失败"})
		return
	}
	defer conn.Close()

	// 读泵只用来发现对端断开, 消息内容丢弃
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	active, progress := h.Store.GenerationState()
	lastErr := h.Store.GenerationError()
	if err := conn.WriteJSON(progressMessage(active, progress, lastErr)); err != nil {
		return
	}
	sawActive := active

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case <-ticker.C:
			cur, p := h.Store.GenerationState()
			errMsg := h.Store.GenerationError()
			if cur != active || !progressEqual(p, progress) || errMsg != lastErr {
				if err := conn.WriteJSON(progressMessage(cur, p, errMsg)); err != nil {
					return
				}
				active, progress, lastErr = cur, p, errMsg
			}
			if cur {
				sawActive = true
			} else if sawActive {
				return
			}
		}
	}
}

func progressMessage(generating bool, p *models.GenerationProgress, lastErr string) gin.H {
	return gin.H{
		"isGenerating": generating,
		"progress":     p,
		"lastError":    lastErr,
	}
}

func progressEqual(a, b *models.GenerationProgress) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
