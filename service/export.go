package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"SceneForge-studio/models"
	"SceneForge-studio/pkg/logger"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// 导出格式
const (
	ExportFormatJSON = "json"
	ExportFormatCSV  = "csv"
)

const exportURLExpiry = 72 * time.Hour

// Exporter 把分镜板打包上传到 MinIO, 返回带时效的下载链接
type Exporter struct {
	client *minio.Client
	bucket string
}

func NewExporter(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*Exporter, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio init failed: %w", err)
	}
	return &Exporter{client: client, bucket: bucket}, nil
}

// ExportResult 导出结果
type ExportResult struct {
	ExportID    string    `json:"export_id"`
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
	FileSize    int       `json:"file_size"`
}

// ExportProject 按指定格式导出项目并上传, 默认 json
func (e *Exporter) ExportProject(ctx context.Context, project models.Project, format string) (*ExportResult, error) {
	var (
		content     []byte
		contentType string
		ext         string
		err         error
	)
	switch format {
	case ExportFormatCSV:
		content, err = buildCSVShotList(project)
		contentType = "text/csv"
		ext = "csv"
	case ExportFormatJSON, "":
		content, err = buildJSONBundle(project)
		contentType = "application/json"
		ext = "json"
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
	if err != nil {
		return nil, err
	}

	exportID := uuid.NewString()
	objectName := fmt.Sprintf("exports/%s/%s.%s", project.ID, exportID, ext)

	// 确保 Bucket 存在
	exists, err := e.client.BucketExists(ctx, e.bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket failed: %w", err)
	}
	if !exists {
		if err := e.client.MakeBucket(ctx, e.bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket failed: %w", err)
		}
		logger.Infof("Bucket '%s' 已创建", e.bucket)
	}

	_, err = e.client.PutObject(ctx, e.bucket, objectName,
		bytes.NewReader(content), int64(len(content)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return nil, fmt.Errorf("upload export failed: %w", err)
	}

	presignedURL, err := e.client.PresignedGetObject(ctx, e.bucket, objectName, exportURLExpiry, make(url.Values))
	if err != nil {
		return nil, fmt.Errorf("presign export url failed: %w", err)
	}

	logger.Infof("项目 %s 导出完成: %s (%d bytes)", project.ID, objectName, len(content))
	return &ExportResult{
		ExportID:    exportID,
		DownloadURL: presignedURL.String(),
		ExpiresAt:   time.Now().Add(exportURLExpiry),
		FileSize:    len(content),
	}, nil
}

// buildJSONBundle 项目 + 有序帧 + 参数的完整 JSON 包
func buildJSONBundle(project models.Project) ([]byte, error) {
	bundle := map[string]interface{}{
		"project": map[string]interface{}{
			"id":          project.ID,
			"name":        project.Name,
			"description": project.Description,
			"genre":       project.Genre,
			"created_at":  project.CreatedAt.Format(time.RFC3339),
			"updated_at":  project.UpdatedAt.Format(time.RFC3339),
		},
		"frames": project.Frames,
		"export": map[string]interface{}{
			"format":      ExportFormatJSON,
			"frame_count": len(project.Frames),
			"timestamp":   time.Now().Format(time.RFC3339),
		},
	}
	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal export bundle failed: %w", err)
	}
	return data, nil
}

// buildCSVShotList 给制片部门用的镜头清单
func buildCSVShotList(project models.Project) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"sequence", "prompt", "camera_angle", "composition", "fov", "lighting", "hdr_bloom", "color_temp", "contrast", "image_url", "notes"}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header failed: %w", err)
	}
	for i, f := range project.Frames {
		row := []string{
			strconv.Itoa(i + 1),
			f.Prompt,
			f.Params.CameraAngle,
			f.Params.Composition,
			strconv.Itoa(f.Params.FOV),
			strconv.Itoa(f.Params.Lighting),
			strconv.Itoa(f.Params.HDRBloom),
			strconv.Itoa(f.Params.ColorTemp),
			strconv.Itoa(f.Params.Contrast),
			f.ImageURL,
			f.Notes,
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row failed: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv failed: %w", err)
	}
	return buf.Bytes(), nil
}
