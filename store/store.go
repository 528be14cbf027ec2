package store

import (
	"sync"
	"time"

	"SceneForge-studio/models"
	"SceneForge-studio/pkg/logger"

	"github.com/google/uuid"
)

// Store 应用状态的唯一出入口: 项目列表、当前选中项目/帧、demo 开关
// 以及瞬态的生成进度。由组合根构造并传给消费方, 不做包级单例。
// 每次项目数据变更后把 {demoMode, projects} 快照落盘;
// 选中状态与生成进度不落盘, 每次会话重建。
type Store struct {
	mu              sync.RWMutex
	projects        []models.Project
	current         *models.Project
	selectedFrameID string
	demoMode        bool

	generating bool
	progress   *models.GenerationProgress
	lastError  string

	snap *Snapshot
}

// New 构造 Store。snap 传 nil 时不落盘(测试用)。
func New(snap *Snapshot) *Store {
	return &Store{snap: snap}
}

// Load 从快照恢复 demoMode 与项目列表。返回是否存在已保存的快照。
// 当前项目与选中帧不恢复, 始终以空选中状态启动。
func (s *Store) Load() (bool, error) {
	if s.snap == nil {
		return false, nil
	}
	state, found, err := s.snap.Load()
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.demoMode = state.DemoMode
	s.projects = state.Projects
	s.current = nil
	s.selectedFrameID = ""
	return true, nil
}

func (s *Store) SetDemoMode(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.demoMode = enabled
	s.persistLocked()
}

func (s *Store) DemoMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.demoMode
}

// SetCurrentProject 替换当前项目引用, 传 nil 表示清空。
// 不校验项目是否在列表里, 由调用方负责。
func (s *Store) SetCurrentProject(p *models.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p == nil {
		s.current = nil
		s.selectedFrameID = ""
		return
	}
	cp := cloneProject(*p)
	s.current = &cp
}

func (s *Store) CurrentProject() *models.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	cp := cloneProject(*s.current)
	return &cp
}

func (s *Store) Projects() []models.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Project, len(s.projects))
	for i := range s.projects {
		out[i] = cloneProject(s.projects[i])
	}
	return out
}

func (s *Store) Project(id string) (*models.Project, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.projects {
		if s.projects[i].ID == id {
			cp := cloneProject(s.projects[i])
			return &cp, true
		}
	}
	return nil, false
}

// CreateProject 新建项目并追加到列表, 返回创建值。
func (s *Store) CreateProject(name, description, genre string) models.Project {
	now := time.Now()
	p := models.Project{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Genre:       genre,
		Frames:      []models.Frame{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects = append(s.projects, cloneProject(p))
	s.persistLocked()
	return p
}

func (s *Store) AddProject(p models.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects = append(s.projects, cloneProject(p))
	s.persistLocked()
}

// UpdateProject 按 id 覆盖列表里的同名项目, 若与当前项目同 id 则一并刷新
func (s *Store) UpdateProject(p models.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.projects {
		if s.projects[i].ID == p.ID {
			s.projects[i] = cloneProject(p)
			break
		}
	}
	if s.current != nil && s.current.ID == p.ID {
		cp := cloneProject(p)
		s.current = &cp
	}
	s.persistLocked()
}

// DeleteProject 从列表移除; 删除的是当前项目时同时清掉选中状态
func (s *Store) DeleteProject(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.projects[:0]
	for i := range s.projects {
		if s.projects[i].ID != id {
			kept = append(kept, s.projects[i])
		}
	}
	s.projects = kept
	if s.current != nil && s.current.ID == id {
		s.current = nil
		s.selectedFrameID = ""
	}
	s.persistLocked()
}

// SetBackendID 把生成服务返回的项目 id 合并进本地项目
func (s *Store) SetBackendID(projectID, backendID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.projects {
		if s.projects[i].ID == projectID {
			s.projects[i].BackendID = backendID
		}
	}
	if s.current != nil && s.current.ID == projectID {
		s.current.BackendID = backendID
	}
	s.persistLocked()
}

func (s *Store) SelectFrame(frameID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedFrameID = frameID
}

func (s *Store) SelectedFrameID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedFrameID
}

// AddFrame 追加帧到当前项目。没有当前项目时静默忽略。
func (s *Store) AddFrame(f models.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return
	}
	s.current.Frames = append(s.current.Frames, f)
	s.commitCurrentLocked()
}

// UpdateFrame 按 id 覆盖当前项目中的同名帧
func (s *Store) UpdateFrame(f models.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return
	}
	idx := s.current.FrameIndex(f.ID)
	if idx < 0 {
		return
	}
	s.current.Frames[idx] = f
	s.commitCurrentLocked()
}

// DeleteFrame 删除当前项目中的帧; 删除的是选中帧时清掉选中标记
func (s *Store) DeleteFrame(frameID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return
	}
	idx := s.current.FrameIndex(frameID)
	if idx < 0 {
		return
	}
	s.current.Frames = append(s.current.Frames[:idx], s.current.Frames[idx+1:]...)
	if s.selectedFrameID == frameID {
		s.selectedFrameID = ""
	}
	s.commitCurrentLocked()
}

// ReorderFrames 用调用方给出的排列整体替换帧序列。
// 不校验是否为真排列(拖拽手势产出), 由调用方负责。
func (s *Store) ReorderFrames(frames []models.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return
	}
	next := make([]models.Frame, len(frames))
	copy(next, frames)
	s.current.Frames = next
	s.commitCurrentLocked()
}

func (s *Store) SetGenerating(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generating = active
	if active {
		// 新一轮生成开始, 上一轮的失败原因作废
		s.lastError = ""
	}
}

// SetGenerationError 记录最近一次生成失败的原因。
// 展示层用它提示用户, 下一轮生成开始时清除。
func (s *Store) SetGenerationError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = msg
}

func (s *Store) GenerationError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}

func (s *Store) SetProgress(p models.GenerationProgress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = &p
}

func (s *Store) ClearProgress() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = nil
}

// GenerationState 返回 isGenerating 与进度快照
func (s *Store) GenerationState() (bool, *models.GenerationProgress) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.progress == nil {
		return s.generating, nil
	}
	cp := *s.progress
	return s.generating, &cp
}

func (s *Store) IsGenerating() bool {
	generating, _ := s.GenerationState()
	return generating
}

// commitCurrentLocked 帧变更的统一提交点: 抬高 UpdatedAt,
// 把当前项目回写进列表里的同名条目, 再落盘。
// 列表与当前项目的双写只发生在这里, 两者不会分叉。
func (s *Store) commitCurrentLocked() {
	now := time.Now()
	if now.After(s.current.UpdatedAt) {
		s.current.UpdatedAt = now
	}
	for i := range s.projects {
		if s.projects[i].ID == s.current.ID {
			s.projects[i] = cloneProject(*s.current)
		}
	}
	s.persistLocked()
}

func (s *Store) persistLocked() {
	if s.snap == nil {
		return
	}
	if err := s.snap.Save(s.demoMode, s.projects); err != nil {
		// 内存态仍然是权威数据, 落盘失败只记日志
		logger.Warnf("状态快照落盘失败: %v", err)
	}
}

// cloneProject 深拷贝帧序列, 避免列表与当前项目共享底层数组。
// 空序列保持为空切片而不是 nil, 序列化出来才是 [] 而非 null。
func cloneProject(p models.Project) models.Project {
	frames := make([]models.Frame, len(p.Frames))
	copy(frames, p.Frames)
	p.Frames = frames
	return p
}
