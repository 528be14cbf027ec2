package service_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"SceneForge-studio/models"
	"SceneForge-studio/service"
	"SceneForge-studio/store"
)

// fakeWorker serves the generation API surface the client talks to.
type fakeWorker struct {
	mux       *http.ServeMux
	jobPolls  atomic.Int64
	jobStatus func(poll int64) service.GenerationJob
	project   service.WorkerProject
}

func newFakeWorker() *fakeWorker {
	fw := &fakeWorker{mux: http.NewServeMux()}
	fw.mux.HandleFunc("POST /api/v1/generation/generate", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, service.GenerationJob{ID: "job-1", ProjectID: "backend-1", Status: service.JobStatusPending})
	})
	fw.mux.HandleFunc("POST /api/v1/generation/refine", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, service.GenerationJob{ID: "job-1", ProjectID: "backend-1", Status: service.JobStatusPending})
	})
	fw.mux.HandleFunc("GET /api/v1/generation/jobs/job-1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, fw.jobStatus(fw.jobPolls.Add(1)))
	})
	fw.mux.HandleFunc("GET /api/v1/generation/projects/backend-1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, fw.project)
	})
	return fw
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newRemoteGenerator(st *store.Store, baseURL string) *service.Generator {
	return &service.Generator{
		Store:        st,
		Worker:       service.NewWorkerClient(baseURL),
		FrameCount:   6,
		PollInterval: time.Millisecond,
		MaxPolls:     100,
		CleanupDelay: 10 * time.Millisecond,
	}
}

func newRemoteStore(t *testing.T) (*store.Store, models.Project) {
	t.Helper()
	st := store.New(nil)
	p := st.CreateProject("Remote scene", "", models.GenreScifi)
	st.SetCurrentProject(&p)
	return st, p
}

func TestRemoteGenerate(t *testing.T) {
	fw := newFakeWorker()
	fw.jobStatus = func(poll int64) service.GenerationJob {
		if poll < 2 {
			return service.GenerationJob{
				ID: "job-1", ProjectID: "backend-1", Status: service.JobStatusProcessing,
				ProgressStep: 2, ProgressTotal: 4, ProgressMessage: "Rendering frames",
			}
		}
		return service.GenerationJob{ID: "job-1", ProjectID: "backend-1", Status: service.JobStatusCompleted}
	}
	fw.project = service.WorkerProject{
		ID: "backend-1",
		Frames: []service.WorkerFrame{
			{
				ID:       "rf-1",
				ImageURL: "uploads/rf-1.png",
				Prompt:   "wide establishing shot",
				Params: map[string]interface{}{
					"fov": float64(35), "hdr_bloom": float64(45),
					"color_temp": float64(3200), "camera_angle": "low-angle",
				},
				CreatedAt: "2026-01-02T15:04:05.123456",
			},
			{
				ID:       "rf-2",
				ImageURL: "https://cdn.example.com/rf-2.png",
				Prompt:   "close-up reaction",
				Params: map[string]interface{}{
					"fov": float64(85), "hdrBloom": float64(20), "cameraAngle": "pov",
				},
			},
		},
	}

	srv := httptest.NewServer(fw.mux)
	defer srv.Close()

	st, p := newRemoteStore(t)
	g := newRemoteGenerator(st, srv.URL)

	frames, err := g.Generate(context.Background(), "a distant colony", models.DefaultFrameParams(), models.GenreScifi)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(frames))
	}

	// relative image paths resolve against the worker origin
	if want := srv.URL + "/uploads/rf-1.png"; frames[0].ImageURL != want {
		t.Fatalf("image url = %q, want %q", frames[0].ImageURL, want)
	}
	if frames[1].ImageURL != "https://cdn.example.com/rf-2.png" {
		t.Fatalf("absolute url must pass through, got %q", frames[1].ImageURL)
	}

	// snake_case payload normalized
	if p0 := frames[0].Params; p0.FOV != 35 || p0.HDRBloom != 45 || p0.ColorTemp != 3200 || p0.CameraAngle != models.CameraAngleLowAngle {
		t.Fatalf("snake params not normalized: %+v", p0)
	}
	// camelCase payload normalized, missing fields defaulted
	if p1 := frames[1].Params; p1.FOV != 85 || p1.HDRBloom != 20 || p1.ColorTemp != 5500 || p1.CameraAngle != models.CameraAnglePOV {
		t.Fatalf("camel params not normalized: %+v", p1)
	}
	if frames[0].Timestamp.Year() != 2026 {
		t.Fatalf("timestamp not parsed: %v", frames[0].Timestamp)
	}

	cur := st.CurrentProject()
	if len(cur.Frames) != 2 {
		t.Fatalf("frames not stored: %d", len(cur.Frames))
	}
	if cur.BackendID != "backend-1" {
		t.Fatalf("backend id not merged: %q", cur.BackendID)
	}
	listed, _ := st.Project(p.ID)
	if listed.BackendID != "backend-1" {
		t.Fatal("backend id missing from project list")
	}

	_, prog := st.GenerationState()
	if prog == nil || !prog.IsComplete {
		t.Fatalf("final progress should be complete, got %+v", prog)
	}
	waitForIdle(t, st)
}

func TestRemoteGenerateFailure(t *testing.T) {
	fw := newFakeWorker()
	fw.jobStatus = func(poll int64) service.GenerationJob {
		return service.GenerationJob{ID: "job-1", Status: service.JobStatusFailed, ErrorMessage: "boom"}
	}
	srv := httptest.NewServer(fw.mux)
	defer srv.Close()

	st, _ := newRemoteStore(t)
	g := newRemoteGenerator(st, srv.URL)

	_, err := g.Generate(context.Background(), "doomed run", models.DefaultFrameParams(), models.GenreScifi)
	if err == nil {
		t.Fatal("expected failure")
	}
	// the worker's error message survives verbatim
	if err.Error() != "boom" {
		t.Fatalf("error = %q, want %q", err.Error(), "boom")
	}
	if got := st.CurrentProject(); len(got.Frames) != 0 {
		t.Fatalf("failed run must not add frames, got %d", len(got.Frames))
	}
	// the failure is recorded for consumers polling after the fact
	if got := st.GenerationError(); got != "boom" {
		t.Fatalf("generation error = %q, want %q", got, "boom")
	}
	waitForIdle(t, st)
	if got := st.GenerationError(); got != "boom" {
		t.Fatalf("generation error wiped by cleanup: %q", got)
	}
}

func TestRemoteGenerateTimeout(t *testing.T) {
	fw := newFakeWorker()
	fw.jobStatus = func(poll int64) service.GenerationJob {
		return service.GenerationJob{ID: "job-1", Status: service.JobStatusPending}
	}
	srv := httptest.NewServer(fw.mux)
	defer srv.Close()

	st, _ := newRemoteStore(t)
	g := newRemoteGenerator(st, srv.URL)
	g.MaxPolls = 3

	_, err := g.Generate(context.Background(), "stuck run", models.DefaultFrameParams(), models.GenreScifi)
	if err == nil || !strings.Contains(err.Error(), "timed out after 3 polls") {
		t.Fatalf("expected timeout error, got %v", err)
	}
	waitForIdle(t, st)
}

func TestCancelGeneration(t *testing.T) {
	fw := newFakeWorker()
	fw.jobStatus = func(poll int64) service.GenerationJob {
		return service.GenerationJob{ID: "job-1", Status: service.JobStatusProcessing}
	}
	srv := httptest.NewServer(fw.mux)
	defer srv.Close()

	st, _ := newRemoteStore(t)
	g := newRemoteGenerator(st, srv.URL)
	g.PollInterval = 10 * time.Millisecond

	done := make(chan error, 1)
	go func() {
		_, err := g.Generate(context.Background(), "long run", models.DefaultFrameParams(), models.GenreScifi)
		done <- err
	}()

	deadline := time.Now().Add(2 * time.Second)
	for !g.CancelGeneration("job-1") {
		if time.Now().After(deadline) {
			t.Fatal("job never registered for cancellation")
		}
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case err := <-done:
		if err == nil || !strings.Contains(err.Error(), "cancelled") {
			t.Fatalf("expected cancellation error, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("generate did not return after cancel")
	}
	// a second cancel finds nothing
	if g.CancelGeneration("job-1") {
		t.Fatal("cancel should be one-shot")
	}
	waitForIdle(t, st)
}

func TestRemoteRegenerateFrame(t *testing.T) {
	fw := newFakeWorker()
	fw.jobStatus = func(poll int64) service.GenerationJob {
		return service.GenerationJob{ID: "job-1", ProjectID: "backend-1", Status: service.JobStatusCompleted}
	}
	fw.project = service.WorkerProject{
		ID: "backend-1",
		Frames: []service.WorkerFrame{
			{
				ID:       "f1",
				ImageURL: "https://cdn.example.com/f1-v2.png",
				Prompt:   "moodier take",
				Params:   map[string]interface{}{"fov": float64(28), "contrast": float64(90)},
			},
		},
	}
	srv := httptest.NewServer(fw.mux)
	defer srv.Close()

	st, _ := newRemoteStore(t)
	st.SetBackendID(st.CurrentProject().ID, "backend-1")
	st.AddFrame(models.Frame{
		ID: "f1", ImageURL: "https://cdn.example.com/f1.png",
		Prompt: "first take", Params: models.DefaultFrameParams(), Timestamp: time.Now(),
	})
	g := newRemoteGenerator(st, srv.URL)

	frame, err := g.RegenerateFrame(context.Background(), "f1", models.DefaultFrameParams())
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if frame.ID != "f1" {
		t.Fatalf("frame id changed: %q", frame.ID)
	}
	if frame.Params.FOV != 28 || frame.Params.Contrast != 90 {
		t.Fatalf("refined params not applied: %+v", frame.Params)
	}

	cur := st.CurrentProject()
	if len(cur.Frames) != 1 {
		t.Fatalf("refinement must replace, not append: %d frames", len(cur.Frames))
	}
	if cur.Frames[0].ImageURL != "https://cdn.example.com/f1-v2.png" {
		t.Fatalf("image not updated: %q", cur.Frames[0].ImageURL)
	}
	waitForIdle(t, st)
}
