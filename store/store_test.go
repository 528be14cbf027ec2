package store_test

import (
	"testing"
	"time"

	"SceneForge-studio/models"
	"SceneForge-studio/store"
)

func newFrame(id string) models.Frame {
	return models.Frame{
		ID:        id,
		ImageURL:  "https://example.com/" + id + ".png",
		Prompt:    "prompt " + id,
		Params:    models.DefaultFrameParams(),
		Timestamp: time.Now(),
	}
}

func framesEqual(a, b []models.Frame) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}

// checkSync asserts the current project and its entry in the project
// list carry the same frame sequence.
func checkSync(t *testing.T, st *store.Store) {
	t.Helper()
	cur := st.CurrentProject()
	if cur == nil {
		t.Fatal("no current project")
	}
	listed, ok := st.Project(cur.ID)
	if !ok {
		t.Fatalf("current project %s missing from list", cur.ID)
	}
	if !framesEqual(cur.Frames, listed.Frames) {
		t.Fatalf("frame lists diverged: current=%d listed=%d", len(cur.Frames), len(listed.Frames))
	}
}

func TestCreateProject(t *testing.T) {
	st := store.New(nil)
	p := st.CreateProject("Chase scene", "rooftop pursuit", models.GenreNoir)

	if p.ID == "" {
		t.Fatal("expected generated id")
	}
	if p.Frames == nil || len(p.Frames) != 0 {
		t.Fatalf("new project must start with empty frame list, got %v", p.Frames)
	}
	if !p.CreatedAt.Equal(p.UpdatedAt) {
		t.Fatalf("createdAt %v != updatedAt %v", p.CreatedAt, p.UpdatedAt)
	}
	if got, ok := st.Project(p.ID); !ok || got.Name != "Chase scene" {
		t.Fatalf("project not in list: %v %v", got, ok)
	}
}

func TestFrameOpsKeepListInSync(t *testing.T) {
	st := store.New(nil)
	p := st.CreateProject("sync", "", models.GenreScifi)
	st.SetCurrentProject(&p)

	st.AddFrame(newFrame("f1"))
	checkSync(t, st)
	st.AddFrame(newFrame("f2"))
	checkSync(t, st)
	st.AddFrame(newFrame("f3"))
	checkSync(t, st)

	f2 := newFrame("f2")
	f2.Prompt = "updated"
	st.UpdateFrame(f2)
	checkSync(t, st)

	st.ReorderFrames([]models.Frame{newFrame("f3"), newFrame("f1"), newFrame("f2")})
	checkSync(t, st)

	st.DeleteFrame("f1")
	checkSync(t, st)

	cur := st.CurrentProject()
	if !framesEqual(cur.Frames, []models.Frame{newFrame("f3"), newFrame("f2")}) {
		t.Fatalf("unexpected final order: %v", cur.Frames)
	}
}

func TestFrameOpsNoopWithoutCurrentProject(t *testing.T) {
	st := store.New(nil)
	p := st.CreateProject("orphan", "", models.GenreNoir)

	st.AddFrame(newFrame("f1"))
	st.UpdateFrame(newFrame("f1"))
	st.DeleteFrame("f1")
	st.ReorderFrames([]models.Frame{newFrame("f1")})

	got, _ := st.Project(p.ID)
	if len(got.Frames) != 0 {
		t.Fatalf("frame ops without current project must not touch the list, got %d frames", len(got.Frames))
	}
}

func TestDeleteSelectedFrameClearsSelection(t *testing.T) {
	st := store.New(nil)
	p := st.CreateProject("sel", "", models.GenreNoir)
	st.SetCurrentProject(&p)
	st.AddFrame(newFrame("f1"))
	st.AddFrame(newFrame("f2"))

	st.SelectFrame("f2")
	st.DeleteFrame("f2")
	if got := st.SelectedFrameID(); got != "" {
		t.Fatalf("selection should be cleared, got %q", got)
	}

	// deleting a non-selected frame leaves the selection alone
	st.SelectFrame("f1")
	st.AddFrame(newFrame("f3"))
	st.DeleteFrame("f3")
	if got := st.SelectedFrameID(); got != "f1" {
		t.Fatalf("selection should survive, got %q", got)
	}
}

func TestDeleteProjectClearsCurrentAndSelection(t *testing.T) {
	st := store.New(nil)
	p := st.CreateProject("gone", "", models.GenreNoir)
	st.SetCurrentProject(&p)
	st.AddFrame(newFrame("f1"))
	st.SelectFrame("f1")

	st.DeleteProject(p.ID)
	if st.CurrentProject() != nil {
		t.Fatal("current project should be cleared")
	}
	if st.SelectedFrameID() != "" {
		t.Fatal("selection should be cleared")
	}
	if got := st.Projects(); len(got) != 0 {
		t.Fatalf("project still listed: %v", got)
	}
}

func TestUpdatedAtMonotonic(t *testing.T) {
	st := store.New(nil)
	p := st.CreateProject("mono", "", models.GenreNoir)
	// simulate a clock-skewed snapshot with updatedAt in the future
	p.UpdatedAt = time.Now().Add(time.Hour)
	st.UpdateProject(p)
	st.SetCurrentProject(&p)

	st.AddFrame(newFrame("f1"))
	cur := st.CurrentProject()
	if cur.UpdatedAt.Before(p.UpdatedAt) {
		t.Fatalf("updatedAt moved backwards: %v < %v", cur.UpdatedAt, p.UpdatedAt)
	}

	prev := cur.UpdatedAt
	st.AddFrame(newFrame("f2"))
	if st.CurrentProject().UpdatedAt.Before(prev) {
		t.Fatal("updatedAt must never decrease")
	}
}

func TestReorderIdempotent(t *testing.T) {
	st := store.New(nil)
	p := st.CreateProject("reorder", "", models.GenreNoir)
	st.SetCurrentProject(&p)
	st.AddFrame(newFrame("f1"))
	st.AddFrame(newFrame("f2"))
	st.AddFrame(newFrame("f3"))

	order := []models.Frame{newFrame("f2"), newFrame("f3"), newFrame("f1")}
	st.ReorderFrames(order)
	first := st.CurrentProject().Frames
	st.ReorderFrames(order)
	second := st.CurrentProject().Frames

	if !framesEqual(first, second) || !framesEqual(second, order) {
		t.Fatalf("reorder not idempotent: %v vs %v", first, second)
	}
	checkSync(t, st)
}

func TestSetCurrentProjectNilClearsSelection(t *testing.T) {
	st := store.New(nil)
	p := st.CreateProject("clear", "", models.GenreNoir)
	st.SetCurrentProject(&p)
	st.AddFrame(newFrame("f1"))
	st.SelectFrame("f1")

	st.SetCurrentProject(nil)
	if st.CurrentProject() != nil || st.SelectedFrameID() != "" {
		t.Fatal("clearing the current project must also drop the frame selection")
	}
}

func TestSetBackendID(t *testing.T) {
	st := store.New(nil)
	p := st.CreateProject("backend", "", models.GenreNoir)
	st.SetCurrentProject(&p)

	st.SetBackendID(p.ID, "remote-42")
	if got := st.CurrentProject().BackendID; got != "remote-42" {
		t.Fatalf("current project backendId = %q", got)
	}
	listed, _ := st.Project(p.ID)
	if listed.BackendID != "remote-42" {
		t.Fatalf("listed project backendId = %q", listed.BackendID)
	}
}

func TestGenerationState(t *testing.T) {
	st := store.New(nil)
	st.SetGenerating(true)
	st.SetProgress(models.GenerationProgress{Step: 2, TotalSteps: 4, Message: "rendering"})

	generating, prog := st.GenerationState()
	if !generating || prog == nil || prog.Step != 2 {
		t.Fatalf("unexpected state: %v %v", generating, prog)
	}

	st.SetGenerating(false)
	st.ClearProgress()
	generating, prog = st.GenerationState()
	if generating || prog != nil {
		t.Fatalf("state not cleared: %v %v", generating, prog)
	}
}

func TestGenerationErrorLifecycle(t *testing.T) {
	st := store.New(nil)
	if st.GenerationError() != "" {
		t.Fatal("fresh store should carry no error")
	}

	st.SetGenerationError("worker exploded")
	if got := st.GenerationError(); got != "worker exploded" {
		t.Fatalf("error = %q", got)
	}

	// the error outlives the cleanup that ends the failed run
	st.SetGenerating(false)
	st.ClearProgress()
	if st.GenerationError() != "worker exploded" {
		t.Fatal("error must survive until the next run")
	}

	// starting a new run discards the stale error
	st.SetGenerating(true)
	if got := st.GenerationError(); got != "" {
		t.Fatalf("error not cleared on new run: %q", got)
	}
}
