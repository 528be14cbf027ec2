package service

import (
	"encoding/json"
	"fmt"
	"time"

	"SceneForge-studio/models"
	"SceneForge-studio/pkg/logger"

	"github.com/hibiken/asynq"
)

const TypeGeneration = "generation:remote"

// 生成任务的两种形态
const (
	GenerationKindScene  = "scene"
	GenerationKindRefine = "refine"
)

// GenerationPayload 入队的生成请求。demo 模式不走队列。
type GenerationPayload struct {
	Kind    string             `json:"kind"`
	Prompt  string             `json:"prompt"`
	Genre   string             `json:"genre"`
	FrameID string             `json:"frame_id,omitempty"`
	Params  models.FrameParams `json:"params"`
}

// Queue 远端生成请求的入队端
type Queue struct {
	client *asynq.Client
}

func NewQueue(redisAddr, redisPassword string) *Queue {
	return &Queue{
		client: asynq.NewClient(asynq.RedisClientOpt{
			Addr:     redisAddr,
			Password: redisPassword,
		}),
	}
}

// EnqueueGeneration 把一次生成请求入队。
// 不重试: 重跑会重复追加帧, 初次请求失败交给用户重新触发。
func (q *Queue) EnqueueGeneration(p GenerationPayload) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal payload failed: %w", err)
	}

	task := asynq.NewTask(TypeGeneration, payload,
		asynq.MaxRetry(0),
		asynq.Timeout(20*time.Minute),
		asynq.Retention(24*time.Hour),
	)

	info, err := q.client.Enqueue(task)
	if err != nil {
		return fmt.Errorf("enqueue failed: %w", err)
	}

	logger.Infof("[Queue] generation enqueued: kind=%s, task=%s", p.Kind, info.ID)
	return nil
}

func (q *Queue) Close() error {
	if q == nil || q.client == nil {
		return nil
	}
	return q.client.Close()
}
