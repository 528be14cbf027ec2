package service

import (
	"context"
	"encoding/json"
	"fmt"

	"SceneForge-studio/pkg/logger"

	"github.com/hibiken/asynq"
)

// Processor 消费队列里的远端生成请求, 与 API 层共享同一个 Store
type Processor struct {
	generator     *Generator
	redisAddr     string
	redisPassword string
}

func NewProcessor(gen *Generator, redisAddr, redisPassword string) *Processor {
	return &Processor{
		generator:     gen,
		redisAddr:     redisAddr,
		redisPassword: redisPassword,
	}
}

// Start 启动任务消费者
func (p *Processor) Start(concurrency int) {
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     p.redisAddr,
			Password: p.redisPassword,
		},
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeGeneration, p.handleGeneration)

	logger.Infof("Starting generation processor with concurrency %d...", concurrency)
	go func() {
		if err := srv.Run(mux); err != nil {
			logger.Fatalf("could not run asynq server: %v", err)
		}
	}()
}

func (p *Processor) handleGeneration(ctx context.Context, t *asynq.Task) error {
	var payload GenerationPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("json.Unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}

	logger.Infof("Processing generation task: kind=%s", payload.Kind)

	switch payload.Kind {
	case GenerationKindRefine:
		if _, err := p.generator.RegenerateFrame(ctx, payload.FrameID, payload.Params); err != nil {
			// 业务失败已经写回 Store 并上报, 不再重试
			return fmt.Errorf("refinement failed: %v: %w", err, asynq.SkipRetry)
		}
	case GenerationKindScene:
		if _, err := p.generator.Generate(ctx, payload.Prompt, payload.Params, payload.Genre); err != nil {
			return fmt.Errorf("generation failed: %v: %w", err, asynq.SkipRetry)
		}
	default:
		return fmt.Errorf("unknown generation kind %q: %w", payload.Kind, asynq.SkipRetry)
	}
	return nil
}
