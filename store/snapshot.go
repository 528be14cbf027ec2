package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"SceneForge-studio/models"
)

const snapshotKey = "sceneforge-state"

// SnapshotState 落盘的子集: demo 开关与完整项目列表。
// 当前项目、选中帧与生成进度刻意不在其中。
type SnapshotState struct {
	DemoMode bool             `json:"demoMode"`
	Projects []models.Project `json:"projects"`
}

// Snapshot 单行键值表形态的本地持久化, SQLite 文件承载
type Snapshot struct {
	db   *sql.DB
	path string
}

// OpenSnapshot 打开(或创建)快照数据库并建表
func OpenSnapshot(path string) (*Snapshot, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create snapshot dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS app_state (
        name TEXT PRIMARY KEY,
        data TEXT NOT NULL
    )`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create app_state table: %w", err)
	}

	return &Snapshot{db: db, path: path}, nil
}

func (s *Snapshot) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save 整体覆盖写入快照记录
func (s *Snapshot) Save(demoMode bool, projects []models.Project) error {
	data, err := json.Marshal(SnapshotState{DemoMode: demoMode, Projects: projects})
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO app_state (name, data) VALUES (?, ?)
         ON CONFLICT(name) DO UPDATE SET data = excluded.data`,
		snapshotKey, string(data),
	)
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Load 读取快照记录。首次运行没有记录时 found 为 false, 不算错误。
func (s *Snapshot) Load() (SnapshotState, bool, error) {
	var raw string
	err := s.db.QueryRow(`SELECT data FROM app_state WHERE name = ?`, snapshotKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return SnapshotState{Projects: []models.Project{}}, false, nil
	}
	if err != nil {
		return SnapshotState{}, false, fmt.Errorf("read snapshot: %w", err)
	}

	var state SnapshotState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return SnapshotState{}, false, fmt.Errorf("decode snapshot: %w", err)
	}
	if state.Projects == nil {
		state.Projects = []models.Project{}
	}
	return state, true, nil
}
