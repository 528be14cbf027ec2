package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"SceneForge-studio/models"
)

// 远端任务状态
const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
	JobStatusCancelled  = "cancelled"
)

// GenerationJob 生成服务的任务记录
type GenerationJob struct {
	ID              string `json:"id"`
	ProjectID       string `json:"project_id"`
	Status          string `json:"status"`
	ProgressStep    int    `json:"progress_step"`
	ProgressTotal   int    `json:"progress_total"`
	ProgressMessage string `json:"progress_message"`
	ErrorMessage    string `json:"error_message"`
}

// WorkerFrame 生成服务返回的帧记录, params 保留原始字典交给规范化函数处理
type WorkerFrame struct {
	ID             string                 `json:"id"`
	ImageURL       string                 `json:"image_url"`
	Prompt         string                 `json:"prompt"`
	Params         map[string]interface{} `json:"params"`
	CreatedAt      string                 `json:"created_at"`
	Notes          string                 `json:"notes"`
	SequenceNumber int                    `json:"sequence_number"`
}

// WorkerProject 生成服务侧的项目记录及其帧
type WorkerProject struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Genre       string        `json:"genre"`
	Status      string        `json:"status"`
	Frames      []WorkerFrame `json:"frames"`
}

// WorkerClient 封装远端 SceneForge 生成服务的 HTTP 接口。
// 这是本应用唯一的外部边界。
type WorkerClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewWorkerClient(baseURL string) *WorkerClient {
	return &WorkerClient{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (w *WorkerClient) url(path string) string {
	return w.BaseURL + "/api/v1/generation" + path
}

// CreateGenerationJob 提交一次分镜生成请求, 返回任务记录。
// 参数按 worker 的 snake_case 命名传递。
func (w *WorkerClient) CreateGenerationJob(ctx context.Context, prompt, genre string, frameCount int, params models.FrameParams) (*GenerationJob, error) {
	body := map[string]interface{}{
		"scene_description": prompt,
		"genre":             genre,
		"frame_count":       frameCount,
		"base_params":       models.SnakeFrameParams(params),
	}
	var job GenerationJob
	if err := w.postJSON(ctx, w.url("/generate"), body, &job); err != nil {
		return nil, err
	}
	if job.ID == "" {
		return nil, fmt.Errorf("worker response missing job id")
	}
	return &job, nil
}

// CreateRefinementJob 对单帧提交精修请求
func (w *WorkerClient) CreateRefinementJob(ctx context.Context, frameID, refinementPrompt string, params models.FrameParams) (*GenerationJob, error) {
	body := map[string]interface{}{
		"frame_id":          frameID,
		"refinement_prompt": refinementPrompt,
		"params":            models.SnakeFrameParams(params),
	}
	var job GenerationJob
	if err := w.postJSON(ctx, w.url("/refine"), body, &job); err != nil {
		return nil, err
	}
	if job.ID == "" {
		return nil, fmt.Errorf("worker response missing job id")
	}
	return &job, nil
}

// GetJob 查询任务状态
func (w *WorkerClient) GetJob(ctx context.Context, jobID string) (*GenerationJob, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.url("/jobs/"+jobID), nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	resp, err := w.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("worker request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("worker status code: %d", resp.StatusCode)
	}
	var job GenerationJob
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return nil, fmt.Errorf("decode response failed: %w", err)
	}
	return &job, nil
}

// FetchProject 拉取远端项目及其全部帧
func (w *WorkerClient) FetchProject(ctx context.Context, projectID string) (*WorkerProject, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.url("/projects/"+projectID), nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	resp, err := w.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("worker request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("worker status code: %d", resp.StatusCode)
	}
	var project WorkerProject
	if err := json.NewDecoder(resp.Body).Decode(&project); err != nil {
		return nil, fmt.Errorf("decode response failed: %w", err)
	}
	return &project, nil
}

// CancelJob 通知 worker 取消任务
func (w *WorkerClient) CancelJob(jobID string) error {
	if jobID == "" {
		return fmt.Errorf("empty job id")
	}
	req, err := http.NewRequest(http.MethodDelete, w.url("/jobs/"+jobID), nil)
	if err != nil {
		return fmt.Errorf("create delete request failed: %w", err)
	}
	resp, err := w.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("worker delete request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("worker delete status: %d", resp.StatusCode)
	}
	return nil
}

// CreateShareLink 用 backendId 创建分享链接
func (w *WorkerClient) CreateShareLink(ctx context.Context, backendProjectID string, expiresInDays int) (map[string]interface{}, error) {
	body := map[string]interface{}{
		"expires_in_days":   expiresInDays,
		"allow_public_view": true,
	}
	var out map[string]interface{}
	if err := w.postJSON(ctx, w.url("/share/"+backendProjectID), body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SurpriseMe 请求一条创意场景建议
func (w *WorkerClient) SurpriseMe(ctx context.Context, currentGenre, stylePreference string) (map[string]interface{}, error) {
	body := map[string]interface{}{
		"current_genre":    currentGenre,
		"style_preference": stylePreference,
	}
	var out map[string]interface{}
	if err := w.postJSON(ctx, w.url("/surprise-me"), body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (w *WorkerClient) postJSON(ctx context.Context, url string, body, out interface{}) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request failed: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("worker request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusAccepted {
		var respData map[string]interface{}
		_ = json.NewDecoder(resp.Body).Decode(&respData)
		return fmt.Errorf("worker status code: %d, body: %+v", resp.StatusCode, respData)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response failed: %w", err)
	}
	return nil
}
