package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"SceneForge-studio/config"
	"SceneForge-studio/models"
	"SceneForge-studio/pkg/logger"
	"SceneForge-studio/store"
)

// Generator 驱动一次生成/精修请求的完整生命周期:
// idle -> requesting -> polling -> completed/failed。
// demo 模式走本地模拟管线, 否则提交远端任务并轮询到终态。
// 进度写入 Store, 终态后延迟清理, 给界面留出 "完成" 闪现窗口。
type Generator struct {
	Store  *store.Store
	Worker *WorkerClient

	FrameCount   int
	PollInterval time.Duration
	MaxPolls     int
	CleanupDelay time.Duration

	// demo 模式的步进延迟, 测试可注入固定值
	StepDelay func() time.Duration

	// 可选的错误上报回调
	OnError func(error)

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	cleanup *time.Timer
}

func NewGenerator(st *store.Store, worker *WorkerClient, cfg *config.Config) *Generator {
	return &Generator{
		Store:        st,
		Worker:       worker,
		FrameCount:   cfg.Generation.FrameCount,
		PollInterval: time.Duration(cfg.Generation.PollIntervalSeconds) * time.Second,
		MaxPolls:     cfg.Generation.MaxPolls,
		CleanupDelay: time.Duration(cfg.Generation.CleanupDelayMs) * time.Millisecond,
	}
}

// Generate 从用户意图到帧落库的完整流程。
// 空 prompt 由调用方拦截, 这里不再校验。
func (g *Generator) Generate(ctx context.Context, prompt string, params models.FrameParams, genre string) ([]models.Frame, error) {
	if g.Store.DemoMode() {
		return g.generateDemo(ctx, prompt, params, genre)
	}
	return g.generateRemote(ctx, prompt, params, genre)
}

func (g *Generator) generateRemote(ctx context.Context, prompt string, params models.FrameParams, genre string) ([]models.Frame, error) {
	g.beginRun()
	defer g.cleanupAfterDelay()

	g.Store.SetProgress(models.GenerationProgress{
		Step: 1, TotalSteps: 4, Message: "Submitting generation request...",
	})

	job, err := g.Worker.CreateGenerationJob(ctx, prompt, genre, g.frameCount(), params)
	if err != nil {
		return nil, g.fail(fmt.Errorf("generation request failed: %w", err))
	}

	// worker 返回了它那侧的项目 id 时, 合并进本地项目作为弱引用
	if job.ProjectID != "" {
		if cur := g.Store.CurrentProject(); cur != nil {
			g.Store.SetBackendID(cur.ID, job.ProjectID)
		}
	}

	pollCtx, cancel := context.WithCancel(ctx)
	g.registerCancel(job.ID, cancel)
	defer g.unregisterCancel(job.ID)

	final, err := g.pollJob(pollCtx, job.ID)
	if err != nil {
		return nil, g.fail(err)
	}

	projectID := final.ProjectID
	if projectID == "" {
		projectID = job.ProjectID
	}
	remote, err := g.Worker.FetchProject(pollCtx, projectID)
	if err != nil {
		return nil, g.fail(fmt.Errorf("fetch generated project failed: %w", err))
	}

	frames := make([]models.Frame, 0, len(remote.Frames))
	for _, rf := range remote.Frames {
		frames = append(frames, g.normalizeFrame(rf))
	}
	for _, f := range frames {
		g.Store.AddFrame(f)
	}

	g.Store.SetProgress(models.GenerationProgress{
		Step: 4, TotalSteps: 4, Message: "Storyboard generation completed", IsComplete: true,
	})
	logger.Infof("生成任务 %s 完成, 新增 %d 帧", job.ID, len(frames))
	return frames, nil
}

// pollJob 有界轮询: 固定间隔、固定次数上限。
// 单次网络错误容忍并继续, 次数耗尽按超时失败。
func (g *Generator) pollJob(ctx context.Context, jobID string) (*GenerationJob, error) {
	interval := g.PollInterval
	if interval <= 0 {
		interval = 3 * time.Second
	}
	maxPolls := g.MaxPolls
	if maxPolls <= 0 {
		maxPolls = 100
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastStep := 1
	for attempt := 0; attempt < maxPolls; attempt++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("generation cancelled: %w", ctx.Err())
		case <-ticker.C:
			job, err := g.Worker.GetJob(ctx, jobID)
			if err != nil {
				logger.Warnf("轮询网络错误(继续重试): %v", err)
				continue
			}

			if job.ProgressMessage != "" {
				// 同一次调用内步数只增不减
				if job.ProgressStep > lastStep {
					lastStep = job.ProgressStep
				}
				total := job.ProgressTotal
				if total <= 0 {
					total = 4
				}
				g.Store.SetProgress(models.GenerationProgress{
					Step: lastStep, TotalSteps: total, Message: job.ProgressMessage,
				})
			}

			switch job.Status {
			case JobStatusCompleted:
				return job, nil
			case JobStatusFailed, JobStatusCancelled:
				if job.ErrorMessage != "" {
					return nil, errors.New(job.ErrorMessage)
				}
				return nil, fmt.Errorf("worker reported failure")
			}
		}
	}
	return nil, fmt.Errorf("generation timed out after %d polls", maxPolls)
}

// RegenerateFrame 精修单帧: 保留帧身份, 结果覆盖进原帧。
// 帧不存在时是 no-op, 不报错也不改状态。
func (g *Generator) RegenerateFrame(ctx context.Context, frameID string, params models.FrameParams) (*models.Frame, error) {
	cur := g.Store.CurrentProject()
	if cur == nil {
		return nil, nil
	}
	idx := cur.FrameIndex(frameID)
	if idx < 0 {
		return nil, nil
	}
	frame := cur.Frames[idx]

	if g.Store.DemoMode() {
		return g.regenerateDemo(ctx, frame, params)
	}

	g.beginRun()
	defer g.cleanupAfterDelay()

	g.Store.SetProgress(models.GenerationProgress{
		Step: 1, TotalSteps: 2, Message: "Submitting refinement request...",
	})

	job, err := g.Worker.CreateRefinementJob(ctx, frame.ID, frame.Prompt, params)
	if err != nil {
		return nil, g.fail(fmt.Errorf("refinement request failed: %w", err))
	}

	pollCtx, cancel := context.WithCancel(ctx)
	g.registerCancel(job.ID, cancel)
	defer g.unregisterCancel(job.ID)

	final, err := g.pollJob(pollCtx, job.ID)
	if err != nil {
		return nil, g.fail(err)
	}

	projectID := final.ProjectID
	if projectID == "" {
		projectID = cur.BackendID
	}
	remote, err := g.Worker.FetchProject(pollCtx, projectID)
	if err != nil {
		return nil, g.fail(fmt.Errorf("fetch refined project failed: %w", err))
	}
	if len(remote.Frames) == 0 {
		return nil, g.fail(fmt.Errorf("refinement returned no frames"))
	}

	// 优先取同 id 的帧, 否则取第一帧, 字段合并进原帧
	source := remote.Frames[0]
	for _, rf := range remote.Frames {
		if rf.ID == frame.ID {
			source = rf
			break
		}
	}
	merged := g.normalizeFrame(source)
	merged.ID = frame.ID
	merged.Timestamp = time.Now()
	g.Store.UpdateFrame(merged)

	g.Store.SetProgress(models.GenerationProgress{
		Step: 2, TotalSteps: 2, Message: "Frame refinement completed", IsComplete: true,
	})
	return &merged, nil
}

// CancelGeneration 取消正在轮询的任务, 返回是否实际找到并取消
func (g *Generator) CancelGeneration(jobID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if cancel, ok := g.cancels[jobID]; ok {
		cancel()
		delete(g.cancels, jobID)
		return true
	}
	return false
}

func (g *Generator) registerCancel(jobID string, cancel context.CancelFunc) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancels == nil {
		g.cancels = make(map[string]context.CancelFunc)
	}
	g.cancels[jobID] = cancel
}

func (g *Generator) unregisterCancel(jobID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.cancels, jobID)
}

func (g *Generator) normalizeFrame(rf WorkerFrame) models.Frame {
	f := models.Frame{
		ID:        rf.ID,
		ImageURL:  models.ResolveImageURL(rf.ImageURL, g.Worker.BaseURL),
		Prompt:    rf.Prompt,
		Params:    models.NormalizeFrameParams(rf.Params),
		Timestamp: time.Now(),
		Notes:     rf.Notes,
	}
	// worker 返回的时间戳带不带时区都见过, 逐个格式尝试
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.999999", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, rf.CreatedAt); err == nil {
			f.Timestamp = t
			break
		}
	}
	return f
}

// beginRun 开始新一轮生成: 先停掉上一轮还没触发的清理定时器,
// 否则清理窗口内启动的新请求会被旧定时器误清。
func (g *Generator) beginRun() {
	g.mu.Lock()
	if g.cleanup != nil {
		g.cleanup.Stop()
		g.cleanup = nil
	}
	g.mu.Unlock()
	g.Store.SetGenerating(true)
}

// cleanupAfterDelay 成功失败共用的延迟清理: 清掉 isGenerating 与进度
func (g *Generator) cleanupAfterDelay() {
	delay := g.CleanupDelay
	if delay <= 0 {
		delay = 1500 * time.Millisecond
	}
	t := time.AfterFunc(delay, func() {
		g.Store.SetGenerating(false)
		g.Store.ClearProgress()
	})
	g.mu.Lock()
	if g.cleanup != nil {
		g.cleanup.Stop()
	}
	g.cleanup = t
	g.mu.Unlock()
}

// fail 失败收口: 写回 Store 供界面提示, 记日志, 上报回调
func (g *Generator) fail(err error) error {
	g.Store.SetGenerationError(err.Error())
	logger.Errorf("生成流程失败: %v", err)
	if g.OnError != nil {
		g.OnError(err)
	}
	return err
}

func (g *Generator) frameCount() int {
	if g.FrameCount > 0 {
		return g.FrameCount
	}
	return 6
}
