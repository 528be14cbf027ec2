package models

import "time"

// 机位角度标签
const (
	CameraAngleEyeLevel     = "eye-level"
	CameraAngleLowAngle     = "low-angle"
	CameraAngleHighAngle    = "high-angle"
	CameraAngleDutchAngle   = "dutch-angle"
	CameraAngleBirdsEye     = "birds-eye"
	CameraAngleWormsEye     = "worms-eye"
	CameraAngleOverShoulder = "over-shoulder"
	CameraAnglePOV          = "pov"
)

// 构图规则标签
const (
	CompositionRuleOfThirds     = "rule-of-thirds"
	CompositionCentered         = "centered"
	CompositionSymmetrical      = "symmetrical"
	CompositionLeadingLines     = "leading-lines"
	CompositionFrameWithinFrame = "frame-within-frame"
	CompositionNegativeSpace    = "negative-space"
	CompositionGoldenRatio      = "golden-ratio"
)

// FrameParams 电影摄影参数。取值域: fov 24-120, lighting 0-100,
// hdrBloom 0-100, colorTemp 2700-10000(K), contrast 0-100。
// 数据模型本身不做钳制, 越界值由编辑界面负责收口。
type FrameParams struct {
	FOV         int    `json:"fov"`
	Lighting    int    `json:"lighting"`
	HDRBloom    int    `json:"hdrBloom"`
	ColorTemp   int    `json:"colorTemp"`
	Contrast    int    `json:"contrast"`
	CameraAngle string `json:"cameraAngle"`
	Composition string `json:"composition"`
}

// DefaultFrameParams 与生成服务的默认参数保持一致
func DefaultFrameParams() FrameParams {
	return FrameParams{
		FOV:         50,
		Lighting:    60,
		HDRBloom:    30,
		ColorTemp:   5500,
		Contrast:    50,
		CameraAngle: CameraAngleEyeLevel,
		Composition: CompositionRuleOfThirds,
	}
}

// Frame 一张生成图及产出它的 prompt 与参数
type Frame struct {
	ID        string      `json:"id"`
	ImageURL  string      `json:"imageUrl"`
	Prompt    string      `json:"prompt"`
	Params    FrameParams `json:"params"`
	Timestamp time.Time   `json:"timestamp"`
	Notes     string      `json:"notes,omitempty"`
}
