package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/rivora/internal/models"
	"github.com/desertthunder/rivora/internal/services"
	"github.com/desertthunder/rivora/internal/shared"
	tu "github.com/desertthunder/rivora/internal/testing"
	"github.com/urfave/cli/v3"
)

var testUser = models.Identity{UserID: "user-1", Email: "user@example.com", AccessToken: "access", RefreshToken: "refresh"}

type fakeAuth struct {
	mu         sync.Mutex
	identity   *models.Identity
	err        error
	userErr    error
	signOuts   int
	signOutErr error
}

func (f *fakeAuth) SignIn(ctx context.Context, email, password string) (*models.Identity, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.identity, nil
}

func (f *fakeAuth) SignUp(ctx context.Context, email, password string) (*models.Identity, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.identity, nil
}

func (f *fakeAuth) User(ctx context.Context, identity models.Identity) (*models.Identity, error) {
	if f.userErr != nil {
		return nil, f.userErr
	}
	return &identity, nil
}

func (f *fakeAuth) SignOut(ctx context.Context, identity models.Identity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signOuts++
	return f.signOutErr
}

type stubGenerator struct {
	body string
	err  error
}

func (s *stubGenerator) Generate(ctx context.Context, req services.GenerationRequest) (*services.GenerationResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return services.ClassifyResponse([]byte(s.body))
}

// newTestRunner returns a runner writing to a buffer with its session file in a temp dir.
func newTestRunner(t *testing.T, opts RunnerOpts) (*Runner, *bytes.Buffer) {
	t.Helper()

	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	opts.Config.Session.Path = filepath.Join(t.TempDir(), "session.json")

	output := &bytes.Buffer{}
	opts.Output = output
	runner := NewRunner(opts)
	t.Cleanup(func() { runner.Close() })
	return runner, output
}

func signIn(t *testing.T, r *Runner, identity models.Identity) {
	t.Helper()
	if err := r.saveSession(session{Identity: identity}); err != nil {
		t.Fatalf("saveSession failed: %v", err)
	}
}

func run(r *Runner, args ...string) error {
	app := &cli.Command{Name: "rivora", Commands: r.register()}
	return app.Run(context.Background(), append([]string{"rivora"}, args...))
}

func seededRemote() *tu.FakeRemoteStore {
	remote := tu.NewFakeRemoteStore()
	remote.Seed(testUser.UserID,
		models.StoredItem{ID: 3, Type: models.Video, Prompt: "waves", URL: "https://cdn.example.com/3.mp4", IsFavorite: true},
		models.StoredItem{ID: 2, Type: models.Image, Prompt: "fox", URL: "https://cdn.example.com/2.png"},
		models.StoredItem{ID: 1, Type: models.Text, Prompt: "poem", URL: models.TextURL("roses are red")},
	)
	return remote
}

func memoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("NewDatabase failed: %v", err)
	}
	shared.ConfigureDatabase(db, 1, 1)
	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}
	return db
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			auth := &fakeAuth{}
			remote := tu.NewFakeRemoteStore()
			generator := &stubGenerator{}
			api := &services.APIService{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Auth:       auth,
				Remote:     remote,
				Generator:  generator,
				API:        api,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.auth != auth {
				t.Error("expected auth to be set")
			}
			if runner.remote != remote {
				t.Error("expected remote to be set")
			}
			if runner.generator != generator {
				t.Error("expected generator to be set")
			}
			if runner.api != api {
				t.Error("expected api to be set")
			}
		})

		t.Run("with nil dependencies uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config")
			}
			if runner.logger == nil {
				t.Error("expected default logger")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to stdout")
			}
			if runner.httpClient != http.DefaultClient {
				t.Error("expected http.DefaultClient")
			}
		})

		t.Run("with configPath sets field", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{ConfigPath: "/path/to/config.toml"})
			if runner.configPath != "/path/to/config.toml" {
				t.Errorf("expected configPath to be set, got %q", runner.configPath)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := "{\n  \"key\": \"value\"\n}\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := make(map[string]bool)
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}

		for _, name := range []string{"setup", "auth", "generate", "gallery", "plans", "serve", "tui", "api"} {
			if !names[name] {
				t.Errorf("expected %q command to be registered", name)
			}
		}
	})
}

func TestSession(t *testing.T) {
	t.Run("missing file means nobody is signed in", func(t *testing.T) {
		runner, _ := newTestRunner(t, RunnerOpts{})

		s, err := runner.loadSession()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if s != nil {
			t.Errorf("expected nil session, got %+v", s)
		}

		if _, err := runner.requireSession(); !errors.Is(err, shared.ErrAuthRequired) {
			t.Errorf("expected ErrAuthRequired, got %v", err)
		}
	})

	t.Run("save then load round trips", func(t *testing.T) {
		runner, _ := newTestRunner(t, RunnerOpts{})

		if err := runner.saveSession(session{Identity: testUser, Local: true}); err != nil {
			t.Fatalf("saveSession failed: %v", err)
		}

		s, err := runner.loadSession()
		if err != nil {
			t.Fatalf("loadSession failed: %v", err)
		}
		if s == nil || s.Identity.UserID != testUser.UserID || !s.Local {
			t.Errorf("unexpected session %+v", s)
		}

		identity, err := runner.requireSession()
		if err != nil {
			t.Fatalf("requireSession failed: %v", err)
		}
		if identity.Email != testUser.Email {
			t.Errorf("expected %s, got %s", testUser.Email, identity.Email)
		}
	})

	t.Run("clear forgets the session", func(t *testing.T) {
		runner, _ := newTestRunner(t, RunnerOpts{})
		signIn(t, runner, testUser)

		if err := runner.clearSession(); err != nil {
			t.Fatalf("clearSession failed: %v", err)
		}
		if s, _ := runner.loadSession(); s != nil {
			t.Errorf("expected nil session after clear, got %+v", s)
		}
	})

	t.Run("empty identity counts as signed out", func(t *testing.T) {
		runner, _ := newTestRunner(t, RunnerOpts{})
		signIn(t, runner, models.Identity{})

		if s, err := runner.loadSession(); err != nil || s != nil {
			t.Errorf("expected nil session, got %+v (%v)", s, err)
		}
	})
}

func TestAuthCommands(t *testing.T) {
	t.Run("login saves the backend session", func(t *testing.T) {
		identity := testUser
		runner, output := newTestRunner(t, RunnerOpts{Auth: &fakeAuth{identity: &identity}})

		if err := run(runner, "auth", "login", "--email", testUser.Email, "--password", "secret"); err != nil {
			t.Fatalf("login failed: %v", err)
		}

		if !strings.Contains(output.String(), "Signed in as user@example.com") {
			t.Errorf("unexpected output %q", output.String())
		}

		s, err := runner.loadSession()
		if err != nil || s == nil {
			t.Fatalf("expected saved session, got %v (%v)", s, err)
		}
		if s.Local {
			t.Error("expected backend session")
		}
		if s.Identity.RefreshToken != "refresh" {
			t.Errorf("expected refresh token to be kept, got %q", s.Identity.RefreshToken)
		}
	})

	t.Run("login failure leaves no session", func(t *testing.T) {
		runner, _ := newTestRunner(t, RunnerOpts{Auth: &fakeAuth{err: shared.ErrAuthFailed}})

		err := run(runner, "auth", "login", "--email", testUser.Email, "--password", "wrong")
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Fatalf("expected ErrAuthFailed, got %v", err)
		}
		if s, _ := runner.loadSession(); s != nil {
			t.Errorf("expected no session, got %+v", s)
		}
	})

	t.Run("login without backend", func(t *testing.T) {
		runner, _ := newTestRunner(t, RunnerOpts{})

		err := run(runner, "auth", "login", "--email", testUser.Email)
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("signup awaiting confirmation", func(t *testing.T) {
		runner, output := newTestRunner(t, RunnerOpts{Auth: &fakeAuth{}})

		if err := run(runner, "auth", "signup", "--email", "new@example.com", "--password", "secret"); err != nil {
			t.Fatalf("signup failed: %v", err)
		}
		if !strings.Contains(output.String(), "confirmation link") {
			t.Errorf("expected confirmation message, got %q", output.String())
		}
		if s, _ := runner.loadSession(); s != nil {
			t.Errorf("expected no session before confirmation, got %+v", s)
		}
	})

	t.Run("logout revokes and clears", func(t *testing.T) {
		auth := &fakeAuth{}
		runner, output := newTestRunner(t, RunnerOpts{Auth: auth})
		signIn(t, runner, testUser)

		if err := run(runner, "auth", "logout"); err != nil {
			t.Fatalf("logout failed: %v", err)
		}
		if auth.signOuts != 1 {
			t.Errorf("expected 1 sign out, got %d", auth.signOuts)
		}
		if !strings.Contains(output.String(), "Signed out user@example.com") {
			t.Errorf("unexpected output %q", output.String())
		}
		if s, _ := runner.loadSession(); s != nil {
			t.Errorf("expected session to be cleared, got %+v", s)
		}
	})

	t.Run("logout clears even when revocation fails", func(t *testing.T) {
		auth := &fakeAuth{signOutErr: shared.ErrNetwork}
		runner, _ := newTestRunner(t, RunnerOpts{Auth: auth})
		signIn(t, runner, testUser)

		if err := run(runner, "auth", "logout"); err != nil {
			t.Fatalf("logout failed: %v", err)
		}
		if s, _ := runner.loadSession(); s != nil {
			t.Errorf("expected session to be cleared, got %+v", s)
		}
	})

	t.Run("status", func(t *testing.T) {
		t.Run("signed out", func(t *testing.T) {
			runner, output := newTestRunner(t, RunnerOpts{Auth: &fakeAuth{}})

			if err := run(runner, "auth", "status"); err != nil {
				t.Fatalf("status failed: %v", err)
			}
			if !strings.Contains(output.String(), "Not signed in") {
				t.Errorf("unexpected output %q", output.String())
			}
		})

		t.Run("signed in", func(t *testing.T) {
			runner, output := newTestRunner(t, RunnerOpts{Auth: &fakeAuth{}})
			signIn(t, runner, testUser)

			if err := run(runner, "auth", "status"); err != nil {
				t.Fatalf("status failed: %v", err)
			}
			for _, want := range []string{"Signed in as user@example.com", "User ID: user-1", "Account: backend"} {
				if !strings.Contains(output.String(), want) {
					t.Errorf("expected %q in %q", want, output.String())
				}
			}
		})

		t.Run("expired session", func(t *testing.T) {
			runner, output := newTestRunner(t, RunnerOpts{Auth: &fakeAuth{userErr: shared.ErrNotAuthenticated}})
			signIn(t, runner, testUser)

			err := run(runner, "auth", "status")
			if !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Fatalf("expected ErrNotAuthenticated, got %v", err)
			}
			if !strings.Contains(output.String(), "has expired") {
				t.Errorf("unexpected output %q", output.String())
			}
		})
	})

	t.Run("local accounts", func(t *testing.T) {
		db := memoryDB(t)
		runner, output := newTestRunner(t, RunnerOpts{DB: db})

		if err := run(runner, "auth", "signup", "--local", "--email", "Local@Example.com", "--name", "Local"); err != nil {
			t.Fatalf("local signup failed: %v", err)
		}

		s, err := runner.loadSession()
		if err != nil || s == nil {
			t.Fatalf("expected session, got %v (%v)", s, err)
		}
		if !s.Local || s.Identity.Email != "local@example.com" || s.Identity.UserID == "" {
			t.Errorf("unexpected local session %+v", s)
		}

		if err := runner.clearSession(); err != nil {
			t.Fatalf("clearSession failed: %v", err)
		}
		output.Reset()

		if err := run(runner, "auth", "login", "--local", "--email", "LOCAL@example.com"); err != nil {
			t.Fatalf("local login failed: %v", err)
		}
		if !strings.Contains(output.String(), "Signed in as local@example.com") {
			t.Errorf("unexpected output %q", output.String())
		}

		err = run(runner, "auth", "login", "--local", "--email", "nobody@example.com")
		if !errors.Is(err, shared.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("local signup rejects invalid email", func(t *testing.T) {
		runner, _ := newTestRunner(t, RunnerOpts{DB: memoryDB(t)})

		err := run(runner, "auth", "signup", "--local", "--email", "not-an-email")
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestGalleryCommands(t *testing.T) {
	t.Run("requires a session", func(t *testing.T) {
		runner, _ := newTestRunner(t, RunnerOpts{Remote: seededRemote()})

		if err := run(runner, "gallery", "list"); !errors.Is(err, shared.ErrAuthRequired) {
			t.Errorf("expected ErrAuthRequired, got %v", err)
		}
	})

	t.Run("list", func(t *testing.T) {
		runner, output := newTestRunner(t, RunnerOpts{Remote: seededRemote()})
		signIn(t, runner, testUser)

		if err := run(runner, "gallery", "list"); err != nil {
			t.Fatalf("list failed: %v", err)
		}

		result := output.String()
		if !strings.Contains(result, "Generations: 3") {
			t.Errorf("expected count header, got %q", result)
		}
		if strings.Index(result, "waves") > strings.Index(result, "fox") {
			t.Error("expected newest item first")
		}
		if !strings.Contains(result, "roses are red") {
			t.Error("expected text content to be printed")
		}
	})

	t.Run("list with filters", func(t *testing.T) {
		runner, output := newTestRunner(t, RunnerOpts{Remote: seededRemote()})
		signIn(t, runner, testUser)

		if err := run(runner, "gallery", "list", "--type", "image"); err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if !strings.Contains(output.String(), "Generations: 1") || !strings.Contains(output.String(), "fox") {
			t.Errorf("expected only the image, got %q", output.String())
		}

		output.Reset()
		if err := run(runner, "gallery", "list", "--favorites", "--json"); err != nil {
			t.Fatalf("list failed: %v", err)
		}

		var items []models.MediaItem
		if err := json.Unmarshal(output.Bytes(), &items); err != nil {
			t.Fatalf("expected JSON output, got %v", err)
		}
		if len(items) != 1 || items[0].ID != 3 {
			t.Errorf("expected only the favorite, got %+v", items)
		}
	})

	t.Run("list with nothing matching", func(t *testing.T) {
		runner, output := newTestRunner(t, RunnerOpts{Remote: seededRemote()})
		signIn(t, runner, testUser)

		if err := run(runner, "gallery", "list", "--type", "Text", "--favorites"); err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if !strings.Contains(output.String(), "Nothing matches") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("list empty gallery", func(t *testing.T) {
		runner, output := newTestRunner(t, RunnerOpts{Remote: tu.NewFakeRemoteStore()})
		signIn(t, runner, testUser)

		if err := run(runner, "gallery", "list"); err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if !strings.Contains(output.String(), "No generations yet") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("list rejects unknown type", func(t *testing.T) {
		runner, _ := newTestRunner(t, RunnerOpts{Remote: seededRemote()})
		signIn(t, runner, testUser)

		if err := run(runner, "gallery", "list", "--type", "Audio"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("list reports load failure", func(t *testing.T) {
		remote := seededRemote()
		remote.FetchErr = shared.ErrNetwork
		runner, _ := newTestRunner(t, RunnerOpts{Remote: remote})
		signIn(t, runner, testUser)

		if err := run(runner, "gallery", "list"); !errors.Is(err, shared.ErrNetwork) {
			t.Errorf("expected ErrNetwork, got %v", err)
		}
	})

	t.Run("favorite toggles and persists", func(t *testing.T) {
		remote := seededRemote()
		runner, output := newTestRunner(t, RunnerOpts{Remote: remote})
		signIn(t, runner, testUser)

		if err := run(runner, "gallery", "favorite", "--id", "2"); err != nil {
			t.Fatalf("favorite failed: %v", err)
		}
		if !strings.Contains(output.String(), "#2 added to favorites") {
			t.Errorf("unexpected output %q", output.String())
		}
		if remote.UpdateCount() != 1 || remote.Updates[0].Fields["is_favorite"] != true {
			t.Errorf("expected one update setting is_favorite, got %+v", remote.Updates)
		}

		output.Reset()
		if err := run(runner, "gallery", "favorite", "--id", "3"); err != nil {
			t.Fatalf("favorite failed: %v", err)
		}
		if !strings.Contains(output.String(), "#3 removed from favorites") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("favorite reports a rolled back change", func(t *testing.T) {
		remote := seededRemote()
		remote.UpdateErr = shared.ErrNetwork
		runner, _ := newTestRunner(t, RunnerOpts{Remote: remote})
		signIn(t, runner, testUser)

		if err := run(runner, "gallery", "favorite", "--id", "2"); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("favorite unknown id", func(t *testing.T) {
		remote := seededRemote()
		runner, _ := newTestRunner(t, RunnerOpts{Remote: remote})
		signIn(t, runner, testUser)

		if err := run(runner, "gallery", "favorite", "--id", "99"); !errors.Is(err, shared.ErrItemNotFound) {
			t.Errorf("expected ErrItemNotFound, got %v", err)
		}
		if remote.UpdateCount() != 0 {
			t.Errorf("expected no remote update, got %d", remote.UpdateCount())
		}
	})

	t.Run("export", func(t *testing.T) {
		runner, output := newTestRunner(t, RunnerOpts{Remote: seededRemote()})
		signIn(t, runner, testUser)
		path := filepath.Join(t.TempDir(), "videos.json")

		if err := run(runner, "gallery", "export", "--type", "Video", "--format", "json", "--output", path); err != nil {
			t.Fatalf("export failed: %v", err)
		}
		if !strings.Contains(output.String(), "Exported 1 items") {
			t.Errorf("unexpected output %q", output.String())
		}

		var items []models.MediaItem
		if err := json.Unmarshal([]byte(tu.MustReadFile(t, path)), &items); err != nil {
			t.Fatalf("failed to decode export: %v", err)
		}
		if len(items) != 1 || items[0].Prompt != "waves" {
			t.Errorf("unexpected export %+v", items)
		}
	})

	t.Run("export rejects unknown format", func(t *testing.T) {
		runner, _ := newTestRunner(t, RunnerOpts{Remote: seededRemote()})
		signIn(t, runner, testUser)

		err := run(runner, "gallery", "export", "--format", "xml", "--output", filepath.Join(t.TempDir(), "out.xml"))
		if !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("save writes text items", func(t *testing.T) {
		runner, output := newTestRunner(t, RunnerOpts{Remote: seededRemote()})
		signIn(t, runner, testUser)
		dir := t.TempDir()

		if err := run(runner, "gallery", "save", "--id", "1", "--dir", dir); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		if !strings.Contains(output.String(), "Saved #1") {
			t.Errorf("unexpected output %q", output.String())
		}
		if got := tu.MustReadFile(t, filepath.Join(dir, "1.txt")); got != "roses are red\n" {
			t.Errorf("expected text content, got %q", got)
		}
	})

	t.Run("open prints text items", func(t *testing.T) {
		runner, output := newTestRunner(t, RunnerOpts{Remote: seededRemote()})
		signIn(t, runner, testUser)

		if err := run(runner, "gallery", "open", "--id", "1"); err != nil {
			t.Fatalf("open failed: %v", err)
		}
		if !strings.Contains(output.String(), "roses are red") {
			t.Errorf("unexpected output %q", output.String())
		}
	})
}

func TestGenerateCommand(t *testing.T) {
	t.Run("stores the result", func(t *testing.T) {
		remote := tu.NewFakeRemoteStore()
		remote.AssignIDs = true
		generator := &stubGenerator{body: `{"url":"https://cdn.example.com/out.png"}`}
		runner, output := newTestRunner(t, RunnerOpts{Remote: remote, Generator: generator})
		signIn(t, runner, testUser)

		if err := run(runner, "generate", "a", "red", "fox"); err != nil {
			t.Fatalf("generate failed: %v", err)
		}

		if remote.InsertCount() != 1 {
			t.Fatalf("expected 1 insert, got %d", remote.InsertCount())
		}
		if remote.Inserts[0].Prompt != "a red fox" || remote.Inserts[0].Type != models.Image {
			t.Errorf("unexpected insert %+v", remote.Inserts[0])
		}
		if !strings.Contains(output.String(), "https://cdn.example.com/out.png") {
			t.Errorf("expected url in output, got %q", output.String())
		}
	})

	t.Run("json output", func(t *testing.T) {
		remote := tu.NewFakeRemoteStore()
		remote.AssignIDs = true
		generator := &stubGenerator{body: `{"text":"a short poem"}`}
		runner, output := newTestRunner(t, RunnerOpts{Remote: remote, Generator: generator})
		signIn(t, runner, testUser)

		if err := run(runner, "generate", "--json", "--type", "Video", "write a poem"); err != nil {
			t.Fatalf("generate failed: %v", err)
		}

		var item models.MediaItem
		if err := json.Unmarshal(output.Bytes(), &item); err != nil {
			t.Fatalf("expected only JSON output, got %q: %v", output.String(), err)
		}
		if item.Type != models.Text {
			t.Errorf("expected text item, got %s", item.Type)
		}
		if content, ok := item.Text(); !ok || content != "a short poem" {
			t.Errorf("unexpected content %q", content)
		}
	})

	t.Run("requires a prompt", func(t *testing.T) {
		runner, _ := newTestRunner(t, RunnerOpts{Remote: tu.NewFakeRemoteStore(), Generator: &stubGenerator{}})
		signIn(t, runner, testUser)

		if err := run(runner, "generate", "   "); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("rejects text as a requested type", func(t *testing.T) {
		runner, _ := newTestRunner(t, RunnerOpts{Remote: tu.NewFakeRemoteStore(), Generator: &stubGenerator{}})
		signIn(t, runner, testUser)

		if err := run(runner, "generate", "--type", "Text", "a fox"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("rejects oversized files", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "big.png")
		if err := os.WriteFile(path, make([]byte, 5*1024*1024+1), 0644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}

		remote := tu.NewFakeRemoteStore()
		runner, _ := newTestRunner(t, RunnerOpts{Remote: remote, Generator: &stubGenerator{body: `{"url":"https://x"}`}})
		signIn(t, runner, testUser)

		if err := run(runner, "generate", "--file", path, "a fox"); !errors.Is(err, shared.ErrFileTooLarge) {
			t.Errorf("expected ErrFileTooLarge, got %v", err)
		}
		if remote.InsertCount() != 0 {
			t.Errorf("expected no insert, got %d", remote.InsertCount())
		}
	})

	t.Run("unrecognized response stores nothing", func(t *testing.T) {
		remote := tu.NewFakeRemoteStore()
		runner, _ := newTestRunner(t, RunnerOpts{Remote: remote, Generator: &stubGenerator{body: `{"status":"ok"}`}})
		signIn(t, runner, testUser)

		if err := run(runner, "generate", "a fox"); !errors.Is(err, shared.ErrUnrecognizedResponse) {
			t.Errorf("expected ErrUnrecognizedResponse, got %v", err)
		}
		if remote.InsertCount() != 0 {
			t.Errorf("expected no insert, got %d", remote.InsertCount())
		}
	})

	t.Run("without webhook", func(t *testing.T) {
		runner, _ := newTestRunner(t, RunnerOpts{Remote: tu.NewFakeRemoteStore()})
		signIn(t, runner, testUser)

		if err := run(runner, "generate", "a fox"); !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})
}

func TestPlansCommand(t *testing.T) {
	t.Run("plain", func(t *testing.T) {
		runner, output := newTestRunner(t, RunnerOpts{})

		if err := run(runner, "plans"); err != nil {
			t.Fatalf("plans failed: %v", err)
		}
		for _, want := range []string{"Plans", "FREE  0/month", "PRO  150/month"} {
			if !strings.Contains(output.String(), want) {
				t.Errorf("expected %q in %q", want, output.String())
			}
		}
	})

	t.Run("json", func(t *testing.T) {
		runner, output := newTestRunner(t, RunnerOpts{})

		if err := run(runner, "plans", "--json"); err != nil {
			t.Fatalf("plans failed: %v", err)
		}

		var plans []models.Plan
		if err := json.Unmarshal(output.Bytes(), &plans); err != nil {
			t.Fatalf("failed to decode plans: %v", err)
		}
		if len(plans) != len(models.SubscriptionPlans()) {
			t.Errorf("expected %d plans, got %d", len(models.SubscriptionPlans()), len(plans))
		}
	})
}
