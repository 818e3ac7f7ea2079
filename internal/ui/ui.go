package ui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/rivora/internal/gallery"
	"github.com/desertthunder/rivora/internal/models"
	"github.com/desertthunder/rivora/internal/shared"
	"github.com/desertthunder/rivora/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	GalleryView ViewState = iota
	PromptView
	PlansView
)

const (
	focusPrompt = iota
	focusAttach
)

// Model represents the TUI application state.
type Model struct {
	ctx        context.Context
	view       ViewState
	store      *gallery.Store
	controller *tasks.SubmissionController
	identity   models.Identity
	logger     *log.Logger

	width  int
	height int

	filter  models.Filter
	gallery list.Model
	prompt  textinput.Model
	attach  textinput.Model
	focus   int

	events   <-chan gallery.Event
	cancel   func()
	progress tasks.ProgressUpdate
	updates  chan tasks.ProgressUpdate
	done     chan submitResult
	working  bool
	spinner  spinner.Model

	status string
	err    error
	help   help.Model
	keys   keyMap
}

// NewModel creates a new TUI model over store and controller, loading the gallery for identity on start.
func NewModel(ctx context.Context, store *gallery.Store, controller *tasks.SubmissionController, identity models.Identity, logger *log.Logger) *Model {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}

	galleryList := list.New(nil, list.NewDefaultDelegate(), 80, 20)
	galleryList.Title = "Gallery"
	galleryList.SetFilteringEnabled(false)
	galleryList.SetShowHelp(false)
	galleryList.DisableQuitKeybindings()

	prompt := textinput.New()
	prompt.Placeholder = "Describe what you want to generate..."
	prompt.CharLimit = 2000
	prompt.Width = 60

	attach := textinput.New()
	attach.Placeholder = "Path to a reference file (optional)"
	attach.Width = 60

	spin := spinner.New(spinner.WithSpinner(spinner.Dot))
	spin.Style = styles.ok

	events, cancel := store.Subscribe(64)

	return &Model{
		ctx:        ctx,
		view:       GalleryView,
		store:      store,
		controller: controller,
		identity:   identity,
		logger:     shared.WithLogger(logger, "component", "tui"),
		filter:     models.Filter{Type: models.FilterAll},
		gallery:    galleryList,
		prompt:     prompt,
		attach:     attach,
		spinner:    spin,
		events:     events,
		cancel:     cancel,
		help:       help.New(),
		keys:       newKeyMap(),
	}
}

// Init loads the gallery and starts listening for store events.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.load(), m.waitForEvent())
}

// Close stops the store subscription. Safe to call more than once.
func (m *Model) Close() {
	m.cancel()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.gallery.SetSize(msg.Width-4, msg.Height-8)
		m.prompt.Width = max(msg.Width-8, 20)
		m.attach.Width = max(msg.Width-8, 20)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.quit()
		}
		switch m.view {
		case GalleryView:
			return m.handleGalleryKeys(msg)
		case PromptView:
			return m.handlePromptKeys(msg)
		case PlansView:
			return m.handlePlansKeys(msg)
		}

	case spinner.TickMsg:
		if !m.working {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateComponents(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgGalleryLoaded:
		if err := errData(msg); err != nil {
			m.err = err
		}
		m.refresh()
		return m, nil

	case MsgStoreEvent:
		event := msg.data.(gallery.Event)
		switch event.Kind {
		case gallery.EventLoadFailed:
			m.logger.Debug("gallery load failed", "error", event.Err)
			m.err = event.Err
		case gallery.EventRolledBack:
			m.status = styles.warn.Render(fmt.Sprintf("Could not save change to #%d", event.Item.ID))
		}
		m.refresh()
		return m, m.waitForEvent()

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, waitForProgress(m.updates, m.done)

	case MsgSubmissionComplete:
		result := msg.data.(submitResult)
		m.working = false
		m.updates, m.done = nil, nil
		if result.err != nil {
			m.logger.Warn("submission failed", "error", result.err)
			m.err = result.err
			return m, nil
		}
		m.err = nil
		m.prompt.Reset()
		m.attach.Reset()
		m.status = styles.ok.Render(fmt.Sprintf("✓ Saved %s #%d", result.item.Type, result.item.ID))
		m.toGallery()
		m.gallery.Select(0)
		return m, nil

	case MsgFavoriteToggled:
		if err := errData(msg); err != nil {
			m.err = err
		}
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch m.view {
	case GalleryView:
		body = m.renderGallery()
	case PromptView:
		body = m.renderPrompt()
	case PlansView:
		body = m.renderPlans()
	}
	return fmt.Sprintf("%s\n%s", m.renderHeader(), body)
}

func (m *Model) handleGalleryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m.quit()
	case key.Matches(msg, m.keys.create):
		m.view = PromptView
		m.focus = focusPrompt
		m.status = ""
		m.err = nil
		return m, m.prompt.Focus()
	case key.Matches(msg, m.keys.plans):
		m.view = PlansView
		return m, nil
	case key.Matches(msg, m.keys.cycle):
		m.filter.Type = m.filter.Type.Next()
		m.refresh()
		return m, nil
	case key.Matches(msg, m.keys.favorites):
		m.filter.FavoritesOnly = !m.filter.FavoritesOnly
		m.refresh()
		return m, nil
	case key.Matches(msg, m.keys.favorite):
		if selected, ok := m.gallery.SelectedItem().(mediaItem); ok {
			return m, m.toggleFavorite(selected.item.ID)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.gallery, cmd = m.gallery.Update(msg)
	return m, cmd
}

func (m *Model) handlePromptKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.toGallery()
		return m, nil
	case key.Matches(msg, m.keys.focus):
		return m, m.toggleFocus()
	case key.Matches(msg, m.keys.mediaType):
		next := models.Video
		if m.controller.GenerationType() == models.Video {
			next = models.Image
		}
		if err := m.controller.SetGenerationType(next); err != nil {
			m.err = err
		}
		return m, nil
	case key.Matches(msg, m.keys.submit):
		return m, m.submit()
	}

	var cmd tea.Cmd
	if m.focus == focusAttach {
		m.attach, cmd = m.attach.Update(msg)
	} else {
		m.prompt, cmd = m.prompt.Update(msg)
	}
	return m, cmd
}

func (m *Model) handlePlansKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m.quit()
	case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.plans):
		m.view = GalleryView
	}
	return m, nil
}

func (m *Model) updateComponents(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case GalleryView:
		m.gallery, cmd = m.gallery.Update(msg)
	case PromptView:
		if m.focus == focusAttach {
			m.attach, cmd = m.attach.Update(msg)
		} else {
			m.prompt, cmd = m.prompt.Update(msg)
		}
	}
	return m, cmd
}

func (m *Model) quit() (tea.Model, tea.Cmd) {
	m.Close()
	return m, tea.Quit
}

func (m *Model) toGallery() {
	m.view = GalleryView
	m.prompt.Blur()
	m.attach.Blur()
	m.refresh()
}

func (m *Model) toggleFocus() tea.Cmd {
	if m.focus == focusPrompt {
		m.focus = focusAttach
		m.prompt.Blur()
		return m.attach.Focus()
	}
	m.focus = focusPrompt
	m.attach.Blur()
	return m.prompt.Focus()
}

// refresh rebuilds the list from the store under the current filter, keeping the cursor where possible.
func (m *Model) refresh() {
	index := m.gallery.Index()
	m.gallery.SetItems(toListItems(m.store.Filtered(m.filter)))
	if n := len(m.gallery.Items()); n > 0 {
		m.gallery.Select(min(index, n-1))
	}
}

func (m *Model) load() tea.Cmd {
	identity := m.identity
	return func() tea.Msg {
		return galleryLoadedMsg(m.store.Load(m.ctx, identity))
	}
}

func (m *Model) waitForEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return nil
		}
		return storeEventMsg(event)
	}
}

func (m *Model) toggleFavorite(id int64) tea.Cmd {
	return func() tea.Msg {
		return favoriteToggledMsg(m.store.ToggleFavorite(m.ctx, id))
	}
}

// submit hands the inputs to the controller and streams its progress back as messages.
func (m *Model) submit() tea.Cmd {
	if m.working || m.controller.InFlight() {
		m.status = styles.warn.Render(tasks.UserMessage(shared.ErrSubmissionInFlight))
		return nil
	}

	m.err = nil
	m.status = ""
	m.controller.SetPrompt(m.prompt.Value())

	if path := strings.TrimSpace(m.attach.Value()); path != "" {
		attachment, err := tasks.NewFileAttachment(shared.ExpandHome(path))
		if err != nil {
			m.err = err
			return nil
		}
		if err := m.controller.Attach(*attachment); err != nil {
			m.err = err
			return nil
		}
	} else {
		m.controller.RemoveAttachment()
	}

	progress := make(chan tasks.ProgressUpdate, 8)
	done := make(chan submitResult, 1)
	m.updates, m.done = progress, done
	m.working = true
	m.progress = tasks.ProgressUpdate{}

	go func() {
		item, err := m.controller.Submit(m.ctx, progress)
		close(progress)
		done <- submitResult{item: item, err: err}
	}()

	return tea.Batch(waitForProgress(progress, done), m.spinner.Tick)
}

// waitForProgress delivers one progress update per call, then the final result once the channel closes.
func waitForProgress(progress <-chan tasks.ProgressUpdate, done <-chan submitResult) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-progress
		if !ok {
			return submissionCompleteMsg(<-done)
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderHeader() string {
	who := "signed out"
	if !m.identity.IsZero() {
		who = m.identity.Email
	}
	header := styles.title.Render("rivora") + "  " + styles.help.Render(who)
	if m.status != "" {
		header += "\n" + m.status
	}
	return header
}

func (m *Model) renderChips() string {
	chips := make([]string, 0, len(models.FilterTypes)+1)
	for _, t := range models.FilterTypes {
		if t == m.filter.Type {
			chips = append(chips, styles.chipActive.Render(string(t)))
		} else {
			chips = append(chips, styles.chip.Render(string(t)))
		}
	}
	if m.filter.FavoritesOnly {
		chips = append(chips, styles.chipActive.Render("★ Favorites"))
	} else {
		chips = append(chips, styles.chip.Render("★ Favorites"))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, chips...)
}

func (m *Model) renderGallery() string {
	helpView := m.help.ShortHelpView([]key.Binding{
		m.keys.create, m.keys.favorite, m.keys.cycle, m.keys.favorites, m.keys.plans, m.keys.quit,
	})

	var content string
	switch {
	case m.store.Loading():
		content = styles.help.Render("Loading gallery...")
	case m.store.Len() == 0 && !m.store.HasGeneratedThisSession():
		content = styles.help.Render("No generations yet. Press n to create your first one.")
	case len(m.gallery.Items()) == 0:
		content = styles.help.Render(fmt.Sprintf("Nothing matches %s.", m.filter))
	default:
		content = m.gallery.View()
	}

	if m.err != nil {
		content += "\n" + styles.err.Render("Error: "+tasks.UserMessage(m.err))
	}
	return fmt.Sprintf("%s\n\n%s\n\n%s", m.renderChips(), content, helpView)
}

func (m *Model) renderPrompt() string {
	var b strings.Builder

	b.WriteString(styles.title.Render("New generation"))
	b.WriteString("\n")

	for _, t := range []models.MediaType{models.Image, models.Video} {
		if t == m.controller.GenerationType() {
			b.WriteString(styles.chipActive.Render(string(t)))
		} else {
			b.WriteString(styles.chip.Render(string(t)))
		}
	}
	b.WriteString("\n\n")
	b.WriteString(m.prompt.View())
	b.WriteString("\n")
	b.WriteString(m.attach.View())
	b.WriteString("\n\n")

	if m.working {
		b.WriteString(fmt.Sprintf("%s [%d/%d] %s\n", m.spinner.View(), m.progress.Step, m.progress.Total, m.progress.Message))
	}
	if m.err != nil {
		b.WriteString(styles.err.Render(tasks.UserMessage(m.err)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.submit, m.keys.focus, m.keys.mediaType, m.keys.back}))
	return b.String()
}

func (m *Model) renderPlans() string {
	plans := models.SubscriptionPlans()
	cards := make([]string, len(plans))

	for i, plan := range plans {
		var b strings.Builder
		b.WriteString(styles.title.Render(plan.Name))
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("%d/month\n\n", plan.Price))
		for _, feature := range plan.Features {
			b.WriteString("• " + feature + "\n")
		}
		b.WriteString("\n[" + plan.CTA + "]")

		style := styles.card
		if plan.Popular {
			style = styles.popular
			b.WriteString("\n" + styles.ok.Render("Most popular"))
		}
		cards[i] = style.Render(b.String())
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s", lipgloss.JoinHorizontal(lipgloss.Top, cards...), helpView)
}
