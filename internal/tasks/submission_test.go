package tasks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/rivora/internal/gallery"
	"github.com/desertthunder/rivora/internal/models"
	"github.com/desertthunder/rivora/internal/services"
	"github.com/desertthunder/rivora/internal/shared"
	tu "github.com/desertthunder/rivora/internal/testing"
)

// mockGenerator returns a fixed result or error and records its requests.
type mockGenerator struct {
	mu       sync.Mutex
	body     string
	err      error
	requests []services.GenerationRequest
	hook     func(ctx context.Context) error
}

func (m *mockGenerator) Generate(ctx context.Context, req services.GenerationRequest) (*services.GenerationResult, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	hook := m.hook
	m.mu.Unlock()

	if hook != nil {
		if err := hook(ctx); err != nil {
			return nil, err
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return services.ClassifyResponse([]byte(m.body))
}

func (m *mockGenerator) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

var testIdentity = models.Identity{UserID: "user-1", Email: "a@example.com"}

func newController(t *testing.T, gen *mockGenerator) (*SubmissionController, *gallery.Store, *tu.FakeRemoteStore) {
	t.Helper()
	remote := tu.NewFakeRemoteStore()
	store := gallery.New(remote, gallery.Options{})
	if err := store.Load(context.Background(), testIdentity); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return NewSubmissionController(gen, store, nil), store, remote
}

func TestSubmissionController(t *testing.T) {
	ctx := context.Background()

	t.Run("New Defaults", func(t *testing.T) {
		c := NewSubmissionController(&mockGenerator{}, nil, nil)
		if c.State() != Idle || c.LastOutcome() != Idle {
			t.Errorf("expected idle controller, got %v/%v", c.State(), c.LastOutcome())
		}
		if c.GenerationType() != models.Image {
			t.Errorf("expected Image default, got %v", c.GenerationType())
		}
	})

	t.Run("Blank Prompt", func(t *testing.T) {
		gen := &mockGenerator{body: `{"url":"u"}`}
		c, store, _ := newController(t, gen)
		c.SetPrompt("   \n")

		_, err := c.Submit(ctx, nil)
		if !errors.Is(err, shared.ErrEmptyPrompt) {
			t.Fatalf("expected ErrEmptyPrompt, got %v", err)
		}
		if gen.calls() != 0 {
			t.Error("expected no generator call")
		}
		if c.State() != Idle || c.LastOutcome() != Idle {
			t.Errorf("expected state to stay idle, got %v/%v", c.State(), c.LastOutcome())
		}
		if store.Len() != 0 {
			t.Error("expected store to be unchanged")
		}
	})

	t.Run("URL Result Keeps Selected Type", func(t *testing.T) {
		gen := &mockGenerator{body: `{"url":"https://cdn/waves.mp4"}`}
		c, store, remote := newController(t, gen)

		c.SetPrompt("ocean waves")
		if err := c.SetGenerationType(models.Video); err != nil {
			t.Fatalf("SetGenerationType failed: %v", err)
		}
		if err := c.Attach(models.BytesAttachment("ref.png", "image/png", []byte("png"))); err != nil {
			t.Fatalf("Attach failed: %v", err)
		}

		item, err := c.Submit(ctx, nil)
		if err != nil {
			t.Fatalf("Submit failed: %v", err)
		}

		if item.Type != models.Video || item.URL != "https://cdn/waves.mp4" || item.Prompt != "ocean waves" {
			t.Errorf("unexpected item %+v", item)
		}
		if gen.calls() != 1 {
			t.Errorf("expected one generator call, got %d", gen.calls())
		}
		req := gen.requests[0]
		if req.Prompt != "ocean waves" || req.Type != models.Video || req.File == nil || req.File.Name != "ref.png" {
			t.Errorf("unexpected request %+v", req)
		}
		if remote.InsertCount() != 1 || store.Len() != 1 {
			t.Errorf("expected exactly one stored item, got %d inserts and %d items", remote.InsertCount(), store.Len())
		}

		if c.Prompt() != "" || c.Attachment() != nil {
			t.Error("expected prompt and attachment to be cleared")
		}
		if c.GenerationType() != models.Video {
			t.Error("expected generation type to be kept")
		}
		if c.State() != Idle || c.LastOutcome() != Succeeded {
			t.Errorf("expected idle/succeeded, got %v/%v", c.State(), c.LastOutcome())
		}
		if c.LastItem() != item || c.Message() != "" {
			t.Error("expected last item to be recorded without an error message")
		}
	})

	t.Run("Text Result", func(t *testing.T) {
		gen := &mockGenerator{body: `{"text":"roses are red"}`}
		c, _, _ := newController(t, gen)
		c.SetPrompt("a poem")

		item, err := c.Submit(ctx, nil)
		if err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
		if item.Type != models.Text || item.URL != "text:roses are red" {
			t.Errorf("unexpected item %+v", item)
		}
	})

	t.Run("JSON Result", func(t *testing.T) {
		gen := &mockGenerator{body: `{"json":{"k":"v"}}`}
		c, _, _ := newController(t, gen)
		c.SetPrompt("structured")

		item, err := c.Submit(ctx, nil)
		if err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
		if item.Type != models.Text || item.URL != "text:{\n  \"k\": \"v\"\n}" {
			t.Errorf("unexpected item %+v", item)
		}
	})

	failures := []struct {
		name    string
		gen     *mockGenerator
		wantErr error
		wantMsg string
	}{
		{
			name:    "Unrecognized Response",
			gen:     &mockGenerator{body: `{"status":"ok"}`},
			wantErr: shared.ErrUnrecognizedResponse,
			wantMsg: MsgUnrecognized,
		},
		{
			name:    "Network Failure",
			gen:     &mockGenerator{err: fmt.Errorf("%w: dial tcp: connection refused", shared.ErrNetwork)},
			wantErr: shared.ErrNetwork,
			wantMsg: MsgNetwork,
		},
		{
			name:    "Non-2xx Status",
			gen:     &mockGenerator{err: fmt.Errorf("%w: webhook request failed: 500 boom", shared.ErrAPIRequest)},
			wantErr: shared.ErrAPIRequest,
			wantMsg: "Webhook request failed: 500 boom",
		},
	}

	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			c, store, remote := newController(t, tt.gen)
			c.SetPrompt("keep me")
			attachment := models.BytesAttachment("ref.png", "image/png", []byte("png"))
			c.Attach(attachment)

			_, err := c.Submit(ctx, nil)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if c.Message() != tt.wantMsg {
				t.Errorf("Message() = %q, want %q", c.Message(), tt.wantMsg)
			}
			if c.Prompt() != "keep me" || c.Attachment() == nil {
				t.Error("expected inputs to be preserved for retry")
			}
			if c.State() != Idle || c.LastOutcome() != Failed {
				t.Errorf("expected idle/failed, got %v/%v", c.State(), c.LastOutcome())
			}
			if store.Len() != 0 || remote.InsertCount() != 0 {
				t.Error("expected nothing to be persisted")
			}
		})
	}

	t.Run("Persist Failure Rolls Back", func(t *testing.T) {
		gen := &mockGenerator{body: `{"url":"u"}`}
		c, store, remote := newController(t, gen)
		remote.InsertErr = errors.New("insert rejected")
		c.SetPrompt("cat")

		_, err := c.Submit(ctx, nil)
		if err == nil {
			t.Fatal("expected persist failure")
		}
		if store.Len() != 0 {
			t.Error("expected optimistic item to be rolled back")
		}
		if c.LastOutcome() != Failed || c.Prompt() != "cat" {
			t.Error("expected failed outcome with prompt preserved")
		}
		if c.Message() != "Failed to save generation: insert rejected" {
			t.Errorf("unexpected message %q", c.Message())
		}
	})

	t.Run("Persist Network Failure Names The Save", func(t *testing.T) {
		gen := &mockGenerator{body: `{"url":"u"}`}
		c, _, remote := newController(t, gen)
		remote.InsertErr = fmt.Errorf("%w: dial tcp: connection refused", shared.ErrNetwork)
		c.SetPrompt("cat")

		_, err := c.Submit(ctx, nil)
		if !errors.Is(err, shared.ErrSaveFailed) || !errors.Is(err, shared.ErrNetwork) {
			t.Fatalf("expected wrapped save failure, got %v", err)
		}
		if c.Message() != MsgSaveNetwork {
			t.Errorf("expected save message, got %q", c.Message())
		}
		if strings.Contains(c.Message(), "generation service") {
			t.Error("save failure should not blame the generation service")
		}
	})

	t.Run("Requires Identity", func(t *testing.T) {
		gen := &mockGenerator{body: `{"url":"u"}`}
		store := gallery.New(tu.NewFakeRemoteStore(), gallery.Options{})
		c := NewSubmissionController(gen, store, nil)
		c.SetPrompt("cat")

		_, err := c.Submit(ctx, nil)
		if !errors.Is(err, shared.ErrAuthRequired) {
			t.Fatalf("expected ErrAuthRequired, got %v", err)
		}
		if c.Message() != "Authentication required" {
			t.Errorf("unexpected message %q", c.Message())
		}
	})

	t.Run("Rejects Concurrent Submit", func(t *testing.T) {
		entered := make(chan struct{})
		release := make(chan struct{})
		gen := &mockGenerator{body: `{"url":"u"}`}
		gen.hook = func(ctx context.Context) error {
			close(entered)
			<-release
			return nil
		}
		c, _, _ := newController(t, gen)
		c.SetPrompt("first")

		done := make(chan error)
		go func() {
			_, err := c.Submit(ctx, nil)
			done <- err
		}()
		<-entered

		if c.State() != Submitting || !c.InFlight() {
			t.Errorf("expected submitting while in flight, got %v", c.State())
		}

		_, err := c.Submit(ctx, nil)
		if !errors.Is(err, shared.ErrSubmissionInFlight) {
			t.Errorf("expected ErrSubmissionInFlight, got %v", err)
		}
		_, err = c.Generate(ctx, nil, Request{Prompt: "other"})
		if !errors.Is(err, shared.ErrSubmissionInFlight) {
			t.Errorf("expected ErrSubmissionInFlight, got %v", err)
		}

		close(release)
		if err := <-done; err != nil {
			t.Fatalf("first submit failed: %v", err)
		}
		if gen.calls() != 1 {
			t.Errorf("expected one generator call, got %d", gen.calls())
		}
		if gen.requests[0].Prompt != "first" {
			t.Errorf("expected in-flight request to be undisturbed, got %q", gen.requests[0].Prompt)
		}
	})

	t.Run("Cancelled Context", func(t *testing.T) {
		gen := &mockGenerator{}
		gen.hook = func(ctx context.Context) error { return ctx.Err() }
		c, _, _ := newController(t, gen)
		c.SetPrompt("cat")

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := c.Submit(cctx, nil); !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if c.Message() != MsgCancelled {
			t.Errorf("unexpected message %q", c.Message())
		}
	})

	t.Run("Progress", func(t *testing.T) {
		gen := &mockGenerator{body: `{"url":"u"}`}
		c, _, _ := newController(t, gen)
		progress := make(chan ProgressUpdate, 10)

		if _, err := c.Generate(ctx, progress, Request{Prompt: "cat", Type: models.Image}); err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		close(progress)

		var phases []Phase
		for u := range progress {
			phases = append(phases, u.Phase)
		}
		want := []Phase{PhaseValidating, PhaseSubmitting, PhaseClassifying, PhasePersisting, PhaseDone}
		if len(phases) != len(want) {
			t.Fatalf("expected %v, got %v", want, phases)
		}
		for i := range want {
			if phases[i] != want[i] {
				t.Fatalf("expected %v, got %v", want, phases)
			}
		}
	})

	t.Run("Progress Does Not Block", func(t *testing.T) {
		gen := &mockGenerator{body: `{"url":"u"}`}
		c, _, _ := newController(t, gen)
		progress := make(chan ProgressUpdate)

		if _, err := c.Generate(ctx, progress, Request{Prompt: "cat"}); err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
	})

	t.Run("Failure Progress", func(t *testing.T) {
		gen := &mockGenerator{err: fmt.Errorf("%w: refused", shared.ErrNetwork)}
		c, _, _ := newController(t, gen)
		progress := make(chan ProgressUpdate, 10)

		c.Generate(ctx, progress, Request{Prompt: "cat"})
		close(progress)

		var last ProgressUpdate
		for u := range progress {
			last = u
		}
		if last.Phase != PhaseFailed || last.Step != 2 || !strings.Contains(last.Message, "Network error") {
			t.Errorf("unexpected final update %+v", last)
		}
	})
}

func TestSubmissionInputs(t *testing.T) {
	t.Run("SetGenerationType Rejects Text", func(t *testing.T) {
		c := NewSubmissionController(&mockGenerator{}, nil, nil)
		if err := c.SetGenerationType(models.Text); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if c.GenerationType() != models.Image {
			t.Error("expected generation type to be unchanged")
		}
	})

	t.Run("Attach Size Threshold", func(t *testing.T) {
		c := NewSubmissionController(&mockGenerator{}, nil, nil)

		atLimit := models.Attachment{Name: "ok.png", Size: MaxAttachmentBytes}
		if err := c.Attach(atLimit); err != nil {
			t.Fatalf("expected file at the limit to be accepted, got %v", err)
		}

		over := models.Attachment{Name: "big.png", Size: MaxAttachmentBytes + 1}
		err := c.Attach(over)
		if !errors.Is(err, shared.ErrFileTooLarge) {
			t.Fatalf("expected ErrFileTooLarge, got %v", err)
		}
		if UserMessage(err) != MsgFileTooLarge {
			t.Errorf("unexpected message %q", UserMessage(err))
		}
		if c.Attachment() != nil {
			t.Error("expected rejected file to clear the previous attachment")
		}
	})

	t.Run("Oversized File Never Reaches Generator", func(t *testing.T) {
		gen := &mockGenerator{body: `{"url":"u"}`}
		c, _, _ := newController(t, gen)

		big := models.Attachment{Name: "big.mp4", Size: MaxAttachmentBytes + 1}
		_, err := c.Generate(context.Background(), nil, Request{Prompt: "cat", Attachment: &big})
		if !errors.Is(err, shared.ErrFileTooLarge) {
			t.Fatalf("expected ErrFileTooLarge, got %v", err)
		}
		if gen.calls() != 0 {
			t.Error("expected no generator call")
		}
	})

	t.Run("RemoveAttachment", func(t *testing.T) {
		c := NewSubmissionController(&mockGenerator{}, nil, nil)
		c.Attach(models.BytesAttachment("a.png", "image/png", []byte("x")))
		c.RemoveAttachment()
		if c.Attachment() != nil {
			t.Error("expected attachment to be removed")
		}
	})
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"Nil", nil, ""},
		{"Network", fmt.Errorf("%w: timeout", shared.ErrNetwork), MsgNetwork},
		{"Save Network", fmt.Errorf("%w: %w", shared.ErrSaveFailed, fmt.Errorf("%w: timeout", shared.ErrNetwork)), MsgSaveNetwork},
		{"Save Passthrough", fmt.Errorf("%w: %w", shared.ErrSaveFailed, errors.New("row too large")), "Failed to save generation: row too large"},
		{"Too Large", shared.ErrFileTooLarge, MsgFileTooLarge},
		{"Passthrough", errors.New("quota exceeded for today"), "Quota exceeded for today"},
		{"API Prefix Stripped", fmt.Errorf("%w: webhook request failed: 429 slow down", shared.ErrAPIRequest), "Webhook request failed: 429 slow down"},
		{"Empty", errors.New(""), MsgGenerationFailed},
		{"Cancelled", context.Canceled, MsgCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewFileAttachment(t *testing.T) {
	dir := t.TempDir()

	t.Run("Extension Content Type", func(t *testing.T) {
		path := filepath.Join(dir, "cat.png")
		if err := os.WriteFile(path, []byte("not really a png"), 0644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}

		a, err := NewFileAttachment(path)
		if err != nil {
			t.Fatalf("NewFileAttachment failed: %v", err)
		}
		if a.Name != "cat.png" || a.ContentType != "image/png" || a.Size != 16 {
			t.Errorf("unexpected attachment %+v", a)
		}

		rc, err := a.Open()
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		rc.Close()
	})

	t.Run("Sniffed Content Type", func(t *testing.T) {
		path := filepath.Join(dir, "notes")
		if err := os.WriteFile(path, []byte("plain words"), 0644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}

		a, err := NewFileAttachment(path)
		if err != nil {
			t.Fatalf("NewFileAttachment failed: %v", err)
		}
		if !strings.HasPrefix(a.ContentType, "text/plain") {
			t.Errorf("expected sniffed text/plain, got %q", a.ContentType)
		}
	})

	t.Run("Missing File", func(t *testing.T) {
		if _, err := NewFileAttachment(filepath.Join(dir, "missing.png")); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Directory", func(t *testing.T) {
		if _, err := NewFileAttachment(dir); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{
		Idle: "idle", Validating: "validating", Submitting: "submitting", Classifying: "classifying",
		Persisting: "persisting", Failed: "failed", Succeeded: "succeeded", State(99): "unknown",
	} {
		if s.String() != want {
			t.Errorf("State(%d).String() = %q, want %q", s, s.String(), want)
		}
	}
}
