package service

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"SceneForge-studio/models"

	"github.com/google/uuid"
)

// demo 管线的固定步骤, 对应生成服务里的 agent 流水线
var demoSteps = []string{
	"Breaking down scene into shots...",
	"Structuring shot parameters...",
	"Rendering storyboard frames...",
	"Running consistency pass...",
}

// generateDemo 本地模拟管线: 不碰网络, 永远成功。
// 固定步骤 + 随机步进延迟, 产出固定数量、参数轻微扰动的帧。
func (g *Generator) generateDemo(ctx context.Context, prompt string, params models.FrameParams, genre string) ([]models.Frame, error) {
	g.beginRun()
	defer g.cleanupAfterDelay()

	total := len(demoSteps)
	for i, msg := range demoSteps {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("generation cancelled: %w", ctx.Err())
		case <-time.After(g.stepDelay()):
		}
		g.Store.SetProgress(models.GenerationProgress{
			Step: i + 1, TotalSteps: total, Message: msg,
		})
	}

	frames := buildDemoFrames(prompt, params, g.frameCount())
	for _, f := range frames {
		g.Store.AddFrame(f)
	}

	g.Store.SetProgress(models.GenerationProgress{
		Step: total, TotalSteps: total, Message: "Storyboard ready", IsComplete: true,
	})
	return frames, nil
}

// regenerateDemo 固定延迟后原地覆盖参数与时间戳
func (g *Generator) regenerateDemo(ctx context.Context, frame models.Frame, params models.FrameParams) (*models.Frame, error) {
	g.beginRun()
	defer g.cleanupAfterDelay()

	g.Store.SetProgress(models.GenerationProgress{
		Step: 1, TotalSteps: 1, Message: "Refining frame...",
	})
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("refinement cancelled: %w", ctx.Err())
	case <-time.After(g.stepDelay()):
	}

	frame.Params = params
	frame.Timestamp = time.Now()
	g.Store.UpdateFrame(frame)

	g.Store.SetProgress(models.GenerationProgress{
		Step: 1, TotalSteps: 1, Message: "Frame refinement completed", IsComplete: true,
	})
	return &frame, nil
}

// buildDemoFrames 构造形状固定、内容随机的帧序列。
// 参数在各自取值域内做小幅扰动; 指定下标强制机位角度模拟镜头变化:
// 第 1 帧定场用平视, 第 3 帧低角度, 第 5 帧过肩。
func buildDemoFrames(prompt string, base models.FrameParams, count int) []models.Frame {
	frames := make([]models.Frame, 0, count)
	for i := 0; i < count; i++ {
		params := perturbParams(base)
		switch i {
		case 0:
			params.CameraAngle = models.CameraAngleEyeLevel
		case 2:
			params.CameraAngle = models.CameraAngleLowAngle
		case 4:
			params.CameraAngle = models.CameraAngleOverShoulder
		}

		frame := models.Frame{
			ID:        uuid.NewString(),
			ImageURL:  fmt.Sprintf("https://picsum.photos/seed/%s/960/540", uuid.NewString()[:8]),
			Prompt:    fmt.Sprintf("%s (shot %d of %d)", prompt, i+1, count),
			Params:    params,
			Timestamp: time.Now(),
		}
		if i == 0 {
			frame.Notes = "Establishing shot: sets the scene geography"
		}
		frames = append(frames, frame)
	}
	return frames
}

func perturbParams(base models.FrameParams) models.FrameParams {
	p := base
	p.FOV = clampInt(base.FOV+rand.Intn(21)-10, 24, 120)
	p.Lighting = clampInt(base.Lighting+rand.Intn(31)-15, 0, 100)
	p.HDRBloom = clampInt(base.HDRBloom+rand.Intn(31)-15, 0, 100)
	p.ColorTemp = clampInt(base.ColorTemp+rand.Intn(1601)-800, 2700, 10000)
	p.Contrast = clampInt(base.Contrast+rand.Intn(31)-15, 0, 100)
	return p
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (g *Generator) stepDelay() time.Duration {
	if g.StepDelay != nil {
		return g.StepDelay()
	}
	return time.Duration(300+rand.Intn(500)) * time.Millisecond
}

// SurpriseFallback 本地创意场景建议表, demo 模式或 worker 不可用时使用
func SurpriseFallback(genre string) map[string]interface{} {
	scenes := map[string]map[string]interface{}{
		models.GenreNoir: {
			"scene_description": "A rain-soaked detective follows mysterious footprints through neon-lit alleyways, shadows dancing between flickering streetlights as thunder rumbles overhead",
			"genre":             models.GenreNoir,
			"suggested_params": map[string]interface{}{
				"fov":         35,
				"lighting":    25,
				"hdrBloom":    45,
				"colorTemp":   3200,
				"contrast":    75,
				"cameraAngle": models.CameraAngleLowAngle,
				"composition": models.CompositionLeadingLines,
			},
		},
		models.GenreScifi: {
			"scene_description": "A lone astronaut discovers an ancient alien artifact pulsing with ethereal energy on a desolate planet beneath twin purple moons",
			"genre":             models.GenreScifi,
			"suggested_params": map[string]interface{}{
				"fov":         24,
				"lighting":    60,
				"hdrBloom":    80,
				"colorTemp":   6500,
				"contrast":    65,
				"cameraAngle": models.CameraAngleEyeLevel,
				"composition": models.CompositionRuleOfThirds,
			},
		},
	}
	if scene, ok := scenes[genre]; ok {
		return scene
	}
	return scenes[models.GenreNoir]
}
