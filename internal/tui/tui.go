package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/tatianab/survival-run/internal/engine"
	"github.com/tatianab/survival-run/internal/export"
	"github.com/tatianab/survival-run/internal/models"
	"github.com/tatianab/survival-run/internal/storage"
)

const (
	revealEvery = 20 * time.Millisecond
	revealStep  = 3
	deltaTTL    = 3 * time.Second
)

// Options configure the presentation layer.
type Options struct {
	ExportDir string
	FontPath  string
	Logger    *zap.Logger
}

type model struct {
	engine    *engine.Engine
	opts      Options
	st        models.RunState
	textInput textinput.Model
	viewport  viewport.Model
	spinner   spinner.Model
	loading   bool
	status    string
	gameLog   string
	pending   string
	revealed  int
	width     int
	height    int
}

var (
	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EEEEEE")).
			Background(lipgloss.Color("#5F5F87")).
			Bold(true).
			PaddingLeft(1)

	gameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F5F"))

	stateStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("#3C3C3C")).
			PaddingLeft(2).
			Foreground(lipgloss.Color("#AAAAAA"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Bold(true).
			Underline(true)

	upStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FD75F")).Bold(true)
	downStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F")).Bold(true)

	highlightStyles = map[string]lipgloss.Style{
		"item":     lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD75F")),
		"location": lipgloss.NewStyle().Foreground(lipgloss.Color("#5FAFFF")),
		"npc":      lipgloss.NewStyle().Foreground(lipgloss.Color("#FF875F")),
		"stat_hp":  lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87")).Bold(true),
		"stat_atk": lipgloss.NewStyle().Foreground(lipgloss.Color("#FFAF00")).Bold(true),
		"stat_mp":  lipgloss.NewStyle().Foreground(lipgloss.Color("#AF87FF")).Bold(true),
		"misc":     lipgloss.NewStyle().Underline(true),
	}
)

const welcome = "Welcome to Survival Run!\n\n" +
	"Press Enter to start a new run, or type /resume to continue the autosave.\n" +
	"Type /slots to see your save slots."

func NewModel(eng *engine.Engine, opts Options) model {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	ti := textinput.New()
	ti.Placeholder = "Press Enter to start..."
	ti.Focus()
	ti.CharLimit = 280
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := model{
		engine:    eng,
		opts:      opts,
		st:        eng.State(),
		textInput: ti,
		spinner:   sp,
	}
	if !eng.Configured() {
		m.status = engine.NotConfiguredMessage
	}
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

type turnMsg struct {
	res    engine.TurnResult
	err    error
	ending bool
}

type sceneMsg struct {
	st  models.RunState
	err error
}

type stateMsg struct {
	st   models.RunState
	note string
	err  error
}

type slotsMsg struct {
	slots []storage.SlotInfo
	err   error
}

type noticeMsg struct {
	text string
	err  error
}

type exportedMsg struct {
	path string
	err  error
}

type revealTickMsg struct{ version uint64 }

type deltaExpiredMsg struct{ version uint64 }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit

		case tea.KeyEnter:
			input := strings.TrimSpace(m.textInput.Value())
			m.textInput.Reset()
			if c, ok := parseCommand(input); ok {
				return m.runCommand(c)
			}
			if m.loading {
				m.status = engine.UserMessage(engine.ErrTurnInFlight)
				return m, nil
			}
			if !m.st.HasStory() {
				return m.start()
			}
			m.finishReveal()
			shown := input
			if shown == "" {
				shown = m.st.RecommendedAction
			}
			m.pending = shown
			m.refresh()
			m.loading = true
			m.status = ""
			return m, m.submit(input)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = m.logWidth()
		m.viewport.Height = max(5, msg.Height-7)
		m.refresh()

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case turnMsg:
		return m.applyTurn(msg)

	case sceneMsg:
		if errors.Is(msg.err, engine.ErrStaleTurn) || msg.st.Version != m.st.Version {
			return m, nil
		}
		m.st = msg.st
		if msg.err != nil {
			m.status = engine.UserMessage(msg.err)
		}
		m.refresh()
		return m, nil

	case stateMsg:
		m.loading = false
		if msg.err != nil {
			m.status = engine.UserMessage(msg.err)
			return m, nil
		}
		m.st = msg.st
		m.gameLog = ""
		m.revealed = len([]rune(m.st.NarrativeText))
		m.status = msg.note
		m.refresh()
		m.viewport.GotoBottom()
		return m, m.finish()

	case slotsMsg:
		if msg.err != nil {
			m.status = engine.UserMessage(msg.err)
			return m, nil
		}
		m.status = formatSlots(msg.slots)
		return m, nil

	case noticeMsg:
		m.status = msg.text
		if msg.err != nil {
			m.status = engine.UserMessage(msg.err)
		}
		return m, nil

	case exportedMsg:
		if msg.err != nil {
			m.opts.Logger.Warn("export failed", zap.String("path", msg.path), zap.Error(msg.err))
			m.status = "Export failed: " + msg.err.Error()
		} else {
			m.opts.Logger.Info("run exported", zap.String("path", msg.path))
			m.status = "Exported to " + msg.path
		}
		return m, nil

	case revealTickMsg:
		if msg.version != m.st.Version {
			return m, nil
		}
		total := len([]rune(m.st.NarrativeText))
		if m.revealed >= total {
			return m, nil
		}
		m.revealed = min(total, m.revealed+revealStep)
		m.refresh()
		m.viewport.GotoBottom()
		return m, revealTick(msg.version)

	case deltaExpiredMsg:
		if m.engine.ExpireLastDelta(msg.version) {
			m.st = m.engine.State()
		}
		return m, nil
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m model) applyTurn(msg turnMsg) (tea.Model, tea.Cmd) {
	if errors.Is(msg.err, engine.ErrStaleTurn) {
		return m, nil
	}
	m.loading = false
	pending := m.pending
	m.pending = ""
	if msg.err != nil {
		m.status = engine.UserMessage(msg.err)
		m.st = msg.res.State
		m.refresh()
		return m, nil
	}

	prev := m.st
	m.st = msg.res.State
	if prev.RunID == m.st.RunID && prev.NarrativeText != m.st.NarrativeText && prev.HasStory() {
		m.gameLog += m.renderStory(prev, len([]rune(prev.NarrativeText))) + "\n\n"
		if pending != "" {
			m.gameLog += m.renderAction(pending) + "\n\n"
		}
	}
	if prev.RunID != m.st.RunID {
		m.gameLog = ""
	}
	m.status = ""
	if msg.res.AutosaveErr != nil {
		m.status = "Autosave failed: " + msg.res.AutosaveErr.Error()
	}

	var cmds []tea.Cmd
	if prev.NarrativeText != m.st.NarrativeText || prev.RunID != m.st.RunID {
		m.revealed = 0
		cmds = append(cmds, revealTick(m.st.Version))
	}
	if !m.st.LastDelta.IsZero() {
		cmds = append(cmds, expireDelta(m.st.Version))
	}
	if s := msg.res.Subject; s != nil {
		cmds = append(cmds, m.scene(m.st.Version, *s))
	}
	if !msg.ending {
		cmds = append(cmds, m.finish())
	}
	m.refresh()
	m.viewport.GotoBottom()
	return m, tea.Batch(cmds...)
}

func (m *model) finishReveal() {
	m.revealed = len([]rune(m.st.NarrativeText))
}

func (m model) start() (tea.Model, tea.Cmd) {
	m.loading = true
	m.status = ""
	m.gameLog = ""
	return m, func() tea.Msg {
		res, err := m.engine.StartRun(context.Background())
		return turnMsg{res: res, err: err}
	}
}

func (m model) submit(action string) tea.Cmd {
	return func() tea.Msg {
		res, err := m.engine.SubmitAction(context.Background(), action)
		return turnMsg{res: res, err: err}
	}
}

func (m model) scene(version uint64, subject models.Subject) tea.Cmd {
	return func() tea.Msg {
		st, err := m.engine.GenerateScene(context.Background(), version, subject)
		return sceneMsg{st: st, err: err}
	}
}

// finish asks for the ending once the run is complete. The engine ignores
// repeated requests.
func (m model) finish() tea.Cmd {
	if !m.st.IsRunComplete || m.st.IsDead || m.st.Ending != "" {
		return nil
	}
	return func() tea.Msg {
		res, err := m.engine.FinishRun(context.Background())
		return turnMsg{res: res, err: err, ending: true}
	}
}

func revealTick(version uint64) tea.Cmd {
	return tea.Tick(revealEvery, func(time.Time) tea.Msg { return revealTickMsg{version: version} })
}

func expireDelta(version uint64) tea.Cmd {
	return tea.Tick(deltaTTL, func(time.Time) tea.Msg { return deltaExpiredMsg{version: version} })
}

func (m model) runCommand(c command) (tea.Model, tea.Cmd) {
	ctx := context.Background()
	eng := m.engine
	switch c.name {
	case "quit":
		return m, tea.Quit

	case "restart":
		if m.loading {
			m.status = engine.UserMessage(engine.ErrTurnInFlight)
			return m, nil
		}
		return m.start()

	case "home":
		m.loading = false
		return m, func() tea.Msg {
			st, err := eng.Reset(ctx)
			return stateMsg{st: st, note: "Back at the start. Press Enter for a new run.", err: err}
		}

	case "resume":
		return m, func() tea.Msg {
			st, err := eng.Resume(ctx)
			return stateMsg{st: st, note: "Autosave loaded.", err: err}
		}

	case "slots":
		return m, func() tea.Msg {
			slots, err := eng.ListSlots(ctx)
			return slotsMsg{slots: slots, err: err}
		}

	case "save", "load", "delete":
		if len(c.args) == 0 {
			m.status = fmt.Sprintf("Usage: /%s <1-%d>", c.name, storage.ManualSlotCount)
			return m, nil
		}
		slot, err := storage.ParseSlot(c.args[0])
		if err != nil {
			m.status = engine.UserMessage(err)
			return m, nil
		}
		switch c.name {
		case "save":
			name := strings.TrimSpace(strings.TrimPrefix(c.rest, c.args[0]))
			return m, func() tea.Msg {
				err := eng.SaveSlot(ctx, slot, name)
				return noticeMsg{text: fmt.Sprintf("Saved to slot %s.", slot), err: err}
			}
		case "load":
			return m, func() tea.Msg {
				st, err := eng.LoadSlot(ctx, slot)
				return stateMsg{st: st, note: fmt.Sprintf("Loaded slot %s.", slot), err: err}
			}
		default:
			return m, func() tea.Msg {
				err := eng.DeleteSlot(ctx, slot)
				return noticeMsg{text: fmt.Sprintf("Slot %s deleted.", slot), err: err}
			}
		}

	case "use", "equip", "unequip":
		if c.rest == "" {
			m.status = fmt.Sprintf("Usage: /%s <item name>", c.name)
			return m, nil
		}
		fn := eng.UseItem
		switch c.name {
		case "equip":
			fn = eng.Equip
		case "unequip":
			fn = eng.Unequip
		}
		res, err := fn(ctx, c.rest)
		if err != nil {
			m.status = engine.UserMessage(err)
			return m, nil
		}
		m.st = res.State
		m.status = ""
		if res.AutosaveErr != nil {
			m.status = "Autosave failed: " + res.AutosaveErr.Error()
		}
		return m, nil

	case "export":
		path := c.rest
		if path == "" {
			path = filepath.Join(m.opts.ExportDir, fmt.Sprintf("run-%s.pdf", shortID(m.st.RunID)))
		}
		st := m.st.Clone()
		font := m.opts.FontPath
		return m, func() tea.Msg {
			err := export.WriteFile(path, st, export.Options{FontPath: font, Now: time.Now()})
			return exportedMsg{path: path, err: err}
		}
	}

	m.status = "Unknown command /" + c.name
	return m, nil
}

func (m model) View() string {
	logView := m.viewport.View()
	if m.width == 0 {
		logView = m.renderLog()
	}
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, logView, m.renderState())

	status := m.status
	if m.loading {
		status = m.spinner.View() + " The story is being written..."
	}
	help := helpStyle.Render("Enter: play the recommended action | /use /equip /unequip <item> | /save /load /delete <n> [name] | /slots /resume /home /export /restart /quit")

	return "\n" + lipgloss.JoinVertical(lipgloss.Left,
		mainView,
		"\n"+m.textInput.View(),
		errorStyle.Render(status),
		help,
	) + "\n"
}

func (m *model) refresh() {
	m.viewport.SetContent(m.renderLog())
	switch {
	case !m.st.HasStory():
		m.textInput.Placeholder = "Press Enter to start..."
	case m.st.IsTerminal():
		m.textInput.Placeholder = "The run is over. /restart or /home"
	case m.st.RecommendedAction != "":
		m.textInput.Placeholder = m.st.RecommendedAction
	default:
		m.textInput.Placeholder = "What do you do?"
	}
}

func (m model) logWidth() int {
	return max(20, int(float64(m.width)*0.70))
}

func (m model) renderLog() string {
	if !m.st.HasStory() && m.st.NarrativeError == "" {
		return gameStyle.Width(m.logWidth()).Render(welcome)
	}
	var b strings.Builder
	b.WriteString(m.gameLog)
	if m.st.NarrativeError != "" {
		b.WriteString(errorStyle.Width(m.logWidth()).Render(m.st.NarrativeError))
		return b.String()
	}
	b.WriteString(m.renderStory(m.st, m.revealed))
	if m.pending != "" {
		b.WriteString("\n\n" + m.renderAction(m.pending))
	}
	if m.st.IsDead {
		b.WriteString("\n\n" + downStyle.Render("You did not survive."))
	}
	if m.st.Ending != "" {
		b.WriteString("\n\n" + titleStyle.Render("ENDING") + "\n")
		b.WriteString(gameStyle.Width(m.logWidth()).Render(m.st.Ending))
		b.WriteString("\n\n" + titleStyle.Render("ACHIEVEMENTS") + "\n")
		for _, a := range m.st.Achievements {
			b.WriteString("- " + a + "\n")
		}
	}
	return b.String()
}

func (m model) renderStory(st models.RunState, revealed int) string {
	runes := []rune(st.NarrativeText)
	text := st.NarrativeText
	if revealed < len(runes) {
		text = string(runes[:max(0, revealed)])
	} else {
		text = highlight(text, st.Highlights)
	}
	return gameStyle.Width(m.logWidth()).Render(text)
}

func (m model) renderAction(action string) string {
	return userStyle.Width(m.logWidth()).Render("> " + action)
}

// highlight colours the keywords the model flagged, by category.
func highlight(text string, hl map[string][]string) string {
	for _, cat := range models.HighlightCategories {
		style, ok := highlightStyles[cat]
		if !ok {
			continue
		}
		for _, word := range hl[cat] {
			if word = strings.TrimSpace(word); word == "" {
				continue
			}
			text = strings.ReplaceAll(text, word, style.Render(word))
		}
	}
	return text
}

func (m model) renderState() string {
	st := m.st
	var b strings.Builder

	b.WriteString(titleStyle.Render("STATS") + "\n")
	atk := st.Stats.ATK
	weaponBonus := 0
	if w := st.Equipped.Weapon; w != nil && w.ATKBonus != nil {
		weaponBonus = *w.ATKBonus
	}
	fmt.Fprintf(&b, "HP:  %d%s\n", st.Stats.HP, deltaTag(st.LastDelta.HP))
	if weaponBonus != 0 {
		fmt.Fprintf(&b, "ATK: %d (+%d)%s\n", atk+weaponBonus, weaponBonus, deltaTag(st.LastDelta.ATK))
	} else {
		fmt.Fprintf(&b, "ATK: %d%s\n", atk, deltaTag(st.LastDelta.ATK))
	}
	fmt.Fprintf(&b, "MP:  %d%s\n", st.Stats.MP, deltaTag(st.LastDelta.MP))
	fmt.Fprintf(&b, "Turn: %d/%d\n", st.TurnCount, st.MaxTurns)
	if st.Genre.SelectedID != "" {
		fmt.Fprintf(&b, "Genre: %s\n", st.Genre.SelectedID)
	}
	if st.BGM != "" {
		fmt.Fprintf(&b, "BGM: %s\n", st.BGM)
	}
	b.WriteString("\n")

	b.WriteString(titleStyle.Render("EQUIPMENT") + "\n")
	fmt.Fprintf(&b, "Weapon: %s\nArmor:  %s\n\n", equipped(st.Equipped.Weapon), equipped(st.Equipped.Armor))

	b.WriteString(titleStyle.Render("INVENTORY") + "\n")
	if len(st.Inventory) == 0 {
		b.WriteString("(empty)\n")
	}
	for _, it := range st.Inventory {
		fmt.Fprintf(&b, "- %s x%d (%s)\n", it.Name, it.Quantity, it.Type)
	}

	if len(st.HUDNotes) > 0 {
		b.WriteString("\n" + titleStyle.Render("LOG") + "\n")
		for _, n := range st.HUDNotes {
			b.WriteString(n + "\n")
		}
	}

	switch {
	case len(st.SceneImage) > 0:
		fmt.Fprintf(&b, "\n%s\nimage ready (%d KB), /export to view\n", titleStyle.Render("SCENE"), len(st.SceneImage)/1024)
	case st.ImageError != "":
		fmt.Fprintf(&b, "\n%s\n%s\n", titleStyle.Render("SCENE"), errorStyle.Render(st.ImageError))
	}

	stateWidth := max(20, int(float64(m.width)*0.27))
	return stateStyle.Width(stateWidth).Height(m.viewport.Height).Render(b.String())
}

func deltaTag(d int) string {
	switch {
	case d > 0:
		return " " + upStyle.Render(fmt.Sprintf("+%d", d))
	case d < 0:
		return " " + downStyle.Render(fmt.Sprintf("%d", d))
	}
	return ""
}

func equipped(it *models.Item) string {
	if it == nil {
		return "-"
	}
	return it.Name
}

func formatSlots(slots []storage.SlotInfo) string {
	parts := make([]string, 0, len(slots))
	for _, s := range slots {
		if s.Empty {
			parts = append(parts, fmt.Sprintf("[%s] empty", s.Slot))
			continue
		}
		parts = append(parts, fmt.Sprintf("[%s] %s (%s)", s.Slot, s.Name, s.SavedAt))
	}
	return strings.Join(parts, "  ")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	if id == "" {
		return "run"
	}
	return id
}

func Run(eng *engine.Engine, opts Options) error {
	p := tea.NewProgram(NewModel(eng, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
