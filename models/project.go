package models

import "time"

// 流派标签(与生成服务保持一致)
const (
	GenreNoir     = "noir"
	GenreScifi    = "scifi"
	GenreHorror   = "horror"
	GenreAction   = "action"
	GenreDrama    = "drama"
	GenreFantasy  = "fantasy"
	GenreThriller = "thriller"
	GenreWestern  = "western"
)

// Project 一个进行中的分镜板项目, 独占其 Frame 序列, 顺序有意义。
// BackendID 是生成服务侧的项目记录 id, 与本地 ID 是两套标识,
// 仅供 export / share / refine 等后续调用使用。
type Project struct {
	ID          string    `json:"id"`
	BackendID   string    `json:"backendId,omitempty"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Genre       string    `json:"genre"`
	Frames      []Frame   `json:"frames"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// FrameIndex 返回指定帧在序列中的下标, 不存在时返回 -1
func (p *Project) FrameIndex(frameID string) int {
	for i := range p.Frames {
		if p.Frames[i].ID == frameID {
			return i
		}
	}
	return -1
}
