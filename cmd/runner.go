package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/rivora/internal/gallery"
	"github.com/desertthunder/rivora/internal/models"
	"github.com/desertthunder/rivora/internal/repositories"
	"github.com/desertthunder/rivora/internal/services"
	"github.com/desertthunder/rivora/internal/shared"
	"github.com/desertthunder/rivora/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Authenticator is the hosted backend's account surface. Implemented by [services.BackendService].
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (*models.Identity, error)
	SignUp(ctx context.Context, email, password string) (*models.Identity, error)
	User(ctx context.Context, identity models.Identity) (*models.Identity, error)
	SignOut(ctx context.Context, identity models.Identity) error
}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	auth       Authenticator
	remote     gallery.RemoteStore
	generator  services.Generator
	api        *services.APIService
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	db         *sql.DB
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Remote overrides the store selected by config.Store.Kind; DB is opened from config.Database on first use when nil.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Auth       Authenticator
	Remote     gallery.RemoteStore
	Generator  services.Generator
	API        *services.APIService
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	DB         *sql.DB
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		auth:       opts.Auth,
		remote:     opts.Remote,
		generator:  opts.Generator,
		api:        opts.API,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		db:         opts.DB,
	}
}

// SetLogger replaces the logger, e.g. to keep log lines out of the TUI.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// Close releases the database if one was opened.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, generateCommand, galleryCommand, plansCommand, serveCommand, tuiCommand, apiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// database opens and migrates the SQLite database on first use.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	r.db = db
	return db, nil
}

// remoteStore returns the persistence backend selected by config.
func (r *Runner) remoteStore() (gallery.RemoteStore, error) {
	if r.remote != nil {
		return r.remote, nil
	}

	switch r.config.Store.Kind {
	case shared.StoreSQLite:
		db, err := r.database()
		if err != nil {
			return nil, err
		}
		r.remote = repositories.NewGenerationRepository(db)
	default:
		backend, ok := r.auth.(gallery.RemoteStore)
		if !ok {
			return nil, fmt.Errorf("%w: backend service not initialized", shared.ErrServiceUnavailable)
		}
		r.remote = backend
	}
	return r.remote, nil
}

// openGallery loads the signed-in user's gallery.
//
// A load failure is returned; callers that can work with an empty gallery may ignore it.
func (r *Runner) openGallery(ctx context.Context) (*gallery.Store, models.Identity, error) {
	identity, err := r.requireSession()
	if err != nil {
		return nil, identity, err
	}

	remote, err := r.remoteStore()
	if err != nil {
		return nil, identity, err
	}

	store := gallery.New(remote, gallery.Options{Logger: r.logger})
	if err := store.Load(ctx, identity); err != nil {
		return store, identity, err
	}
	return store, identity, nil
}

// submissionController wires a controller to store.
func (r *Runner) submissionController(store *gallery.Store) (*tasks.SubmissionController, error) {
	if r.generator == nil {
		return nil, fmt.Errorf("%w: webhook.url is not configured", shared.ErrMissingConfig)
	}
	return tasks.NewSubmissionController(r.generator, store, r.logger), nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
