package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/rivora/internal/models"
	"github.com/desertthunder/rivora/internal/services"
	"github.com/desertthunder/rivora/internal/shared"
)

// MaxAttachmentBytes is the largest accepted attachment. Files of exactly this size are accepted.
const MaxAttachmentBytes = 5 * 1024 * 1024

// User-facing messages.
const (
	MsgFileTooLarge     = "File is too large. Max size is 5MB."
	MsgNetwork          = "Network error: Failed to connect to the generation service. Please check your connection and try again."
	MsgSaveNetwork      = "Network error: The generation finished but could not be saved. Please check your connection and try again."
	MsgGenerationFailed = "Generation failed. Please try again."
	MsgCancelled        = "Generation cancelled."
	MsgUnrecognized     = "Invalid response from generation service. Please try again."
)

// ItemAdder persists a classified draft. Implemented by gallery.Store.
type ItemAdder interface {
	AddItem(ctx context.Context, draft models.Draft) (models.MediaItem, error)
}

// State is the submission lifecycle state.
type State int

const (
	Idle State = iota
	Validating
	Submitting
	Classifying
	Persisting
	Failed
	Succeeded
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Validating:
		return "validating"
	case Submitting:
		return "submitting"
	case Classifying:
		return "classifying"
	case Persisting:
		return "persisting"
	case Failed:
		return "failed"
	case Succeeded:
		return "succeeded"
	default:
		return "unknown"
	}
}

// Request sets every input of a submission at once. See [SubmissionController.Generate].
type Request struct {
	Prompt     string
	Type       models.MediaType
	Attachment *models.Attachment
}

// SubmissionController owns the inputs and lifecycle of one outstanding generation request.
type SubmissionController struct {
	generator services.Generator
	store     ItemAdder
	logger    *log.Logger

	mu          sync.Mutex
	state       State
	inFlight    bool
	prompt      string
	genType     models.MediaType
	attachment  *models.Attachment
	lastOutcome State
	lastErr     error
	lastItem    models.MediaItem
}

// NewSubmissionController creates a controller that generates with generator and persists into store.
func NewSubmissionController(generator services.Generator, store ItemAdder, logger *log.Logger) *SubmissionController {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &SubmissionController{
		generator: generator,
		store:     store,
		logger:    shared.WithLogger(logger, "component", "submission"),
		genType:   models.Image,
		state:     Idle,
	}
}

// SetPrompt replaces the prompt text.
func (c *SubmissionController) SetPrompt(prompt string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompt = prompt
}

// SetGenerationType selects Image or Video.
func (c *SubmissionController) SetGenerationType(t models.MediaType) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setType(t)
}

func (c *SubmissionController) setType(t models.MediaType) error {
	if !t.Generatable() {
		return fmt.Errorf("%w: cannot generate %q", shared.ErrInvalidInput, t)
	}
	c.genType = t
	return nil
}

// Attach holds a for the next submission. Oversized files are rejected and clear any previous attachment.
func (c *SubmissionController) Attach(a models.Attachment) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attach(&a)
}

func (c *SubmissionController) attach(a *models.Attachment) error {
	if a == nil {
		c.attachment = nil
		return nil
	}
	if a.Size > MaxAttachmentBytes {
		c.attachment = nil
		return fmt.Errorf("%w: %s is %s, max size is 5MB", shared.ErrFileTooLarge, a.Name, shared.FormatBytes(a.Size))
	}
	c.attachment = a
	return nil
}

// RemoveAttachment drops the held attachment.
func (c *SubmissionController) RemoveAttachment() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attachment = nil
}

// Submit sends the held inputs.
func (c *SubmissionController) Submit(ctx context.Context, progress chan<- ProgressUpdate) (models.MediaItem, error) {
	return c.submit(ctx, progress, nil)
}

// Generate replaces every input with req and submits, as one step under the in-flight guard.
//
// Inputs are only replaced when no submission is outstanding, so a rejected call never disturbs the one in flight.
func (c *SubmissionController) Generate(ctx context.Context, progress chan<- ProgressUpdate, req Request) (models.MediaItem, error) {
	return c.submit(ctx, progress, func() error {
		t := req.Type
		if t == "" {
			t = models.Image
		}
		if err := c.setType(t); err != nil {
			return err
		}
		if err := c.attach(req.Attachment); err != nil {
			return err
		}
		c.prompt = req.Prompt
		return nil
	})
}

func (c *SubmissionController) submit(ctx context.Context, progress chan<- ProgressUpdate, set func() error) (models.MediaItem, error) {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return models.MediaItem{}, shared.ErrSubmissionInFlight
	}

	if set != nil {
		if err := set(); err != nil {
			c.lastErr = err
			c.mu.Unlock()
			return models.MediaItem{}, err
		}
	}

	c.state = Validating
	sendProgress(progress, validatingUpdate())

	if err := models.ValidatePrompt(c.prompt); err != nil {
		c.state = Idle
		c.lastErr = err
		c.mu.Unlock()
		return models.MediaItem{}, err
	}

	req := services.GenerationRequest{Prompt: c.prompt, Type: c.genType, File: c.attachment}
	c.inFlight = true
	c.lastErr = nil
	c.state = Submitting
	c.mu.Unlock()

	item, step, err := c.run(ctx, progress, req)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.inFlight = false
	c.state = Idle

	if err != nil {
		c.lastOutcome = Failed
		c.lastErr = err
		c.logger.Error("generation failed", "type", req.Type, "phase", step, "error", err)
		sendProgress(progress, failedUpdate(int(step)+1, err))
		return models.MediaItem{}, err
	}

	c.lastOutcome = Succeeded
	c.lastItem = item
	c.prompt = ""
	c.attachment = nil
	c.logger.Info("generation saved", "id", item.ID, "type", item.Type)
	sendProgress(progress, doneUpdate(item))
	return item, nil
}

// run performs the remote phases without holding the lock. It reports the phase that failed.
func (c *SubmissionController) run(ctx context.Context, progress chan<- ProgressUpdate, req services.GenerationRequest) (models.MediaItem, Phase, error) {
	sendProgress(progress, submittingUpdate(req.Type, req.Prompt))
	c.logger.Debug("submitting generation", "type", req.Type, "attachment", req.File != nil)

	result, err := c.generator.Generate(ctx, req)
	if err != nil {
		return models.MediaItem{}, PhaseSubmitting, err
	}

	c.setState(Classifying)
	sendProgress(progress, classifyingUpdate())

	draft, err := result.Draft(req.Prompt, req.Type)
	if err != nil {
		return models.MediaItem{}, PhaseClassifying, err
	}

	c.setState(Persisting)
	sendProgress(progress, persistingUpdate(draft))

	item, err := c.store.AddItem(ctx, draft)
	if err != nil {
		return models.MediaItem{}, PhasePersisting, err
	}
	return item, PhaseDone, nil
}

func (c *SubmissionController) setState(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
}

// State returns the current lifecycle state.
func (c *SubmissionController) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// InFlight reports whether a submission is outstanding.
func (c *SubmissionController) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// LastOutcome returns Succeeded or Failed for the last finished submission, or Idle if none finished yet.
func (c *SubmissionController) LastOutcome() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastOutcome
}

// LastError returns the error of the last rejected or failed submission, cleared when a new one starts.
func (c *SubmissionController) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// LastItem returns the item saved by the last successful submission.
func (c *SubmissionController) LastItem() models.MediaItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastItem
}

// Message is the user-facing text for LastError, or "" when there is none.
func (c *SubmissionController) Message() string {
	err := c.LastError()
	if err == nil {
		return ""
	}
	return UserMessage(err)
}

func (c *SubmissionController) Prompt() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prompt
}

func (c *SubmissionController) GenerationType() models.MediaType {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.genType
}

// Attachment returns the held attachment, if any.
func (c *SubmissionController) Attachment() *models.Attachment {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attachment
}

// UserMessage converts err to the text shown to the user.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, shared.ErrSaveFailed) && errors.Is(err, shared.ErrNetwork):
		return MsgSaveNetwork
	case errors.Is(err, shared.ErrNetwork):
		return MsgNetwork
	case errors.Is(err, shared.ErrFileTooLarge):
		return MsgFileTooLarge
	case errors.Is(err, shared.ErrUnrecognizedResponse):
		return MsgUnrecognized
	case errors.Is(err, context.Canceled):
		return MsgCancelled
	}

	msg := strings.TrimSpace(err.Error())
	msg = strings.TrimPrefix(msg, shared.ErrAPIRequest.Error()+": ")
	if msg == "" {
		return MsgGenerationFailed
	}
	return capitalize(msg)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
