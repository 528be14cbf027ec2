package models

import "strings"

// NormalizeFrameParams 把生成服务返回的参数字典规范化为 FrameParams。
// 旧版 worker 返回 camelCase, 新版返回 snake_case, 两套命名都接受。
// 缺失字段使用默认值: fov 50 / lighting 60 / hdrBloom 30 /
// colorTemp 5500 / contrast 50 / cameraAngle eye-level /
// composition rule-of-thirds。
func NormalizeFrameParams(raw map[string]interface{}) FrameParams {
	p := DefaultFrameParams()
	if raw == nil {
		return p
	}
	if v, ok := numberField(raw, "fov", "fov"); ok {
		p.FOV = v
	}
	if v, ok := numberField(raw, "lighting", "lighting"); ok {
		p.Lighting = v
	}
	if v, ok := numberField(raw, "hdr_bloom", "hdrBloom"); ok {
		p.HDRBloom = v
	}
	if v, ok := numberField(raw, "color_temp", "colorTemp"); ok {
		p.ColorTemp = v
	}
	if v, ok := numberField(raw, "contrast", "contrast"); ok {
		p.Contrast = v
	}
	if v, ok := stringField(raw, "camera_angle", "cameraAngle"); ok {
		p.CameraAngle = v
	}
	if v, ok := stringField(raw, "composition", "composition"); ok {
		p.Composition = v
	}
	return p
}

// SnakeFrameParams 按 worker 的 snake_case 命名导出参数, 用于出站请求
func SnakeFrameParams(p FrameParams) map[string]interface{} {
	return map[string]interface{}{
		"fov":          p.FOV,
		"lighting":     p.Lighting,
		"hdr_bloom":    p.HDRBloom,
		"color_temp":   p.ColorTemp,
		"contrast":     p.Contrast,
		"camera_angle": p.CameraAngle,
		"composition":  p.Composition,
	}
}

// ResolveImageURL 补全图像地址: 绝对 URL 与 data URI 原样返回,
// 相对上传路径拼到 worker 源站上
func ResolveImageURL(raw, workerBase string) string {
	if raw == "" {
		return raw
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") || strings.HasPrefix(raw, "data:") {
		return raw
	}
	return strings.TrimRight(workerBase, "/") + "/" + strings.TrimLeft(raw, "/")
}

func numberField(m map[string]interface{}, snake, camel string) (int, bool) {
	for _, key := range []string{snake, camel} {
		switch v := m[key].(type) {
		case float64:
			return int(v), true
		case int:
			return v, true
		}
	}
	return 0, false
}

func stringField(m map[string]interface{}, snake, camel string) (string, bool) {
	for _, key := range []string{snake, camel} {
		if s, ok := m[key].(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}
