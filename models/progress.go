package models

// GenerationProgress 一次生成的进度快照。瞬态数据, 不落盘。
// Step 从 1 开始计数, IsComplete 仅在成功终态为 true。
type GenerationProgress struct {
	Step       int    `json:"step"`
	TotalSteps int    `json:"totalSteps"`
	Message    string `json:"message"`
	IsComplete bool   `json:"isComplete"`
}
