package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/minsnailee/llm-detective/internal/handlers"
	"github.com/minsnailee/llm-detective/pkg/chat"
)

const PlaceHolderText = "Type your question here..."

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	client       *http.Client
	session      *handlers.SessionResponse
	messages     []chat.Message
	pinned       []string
	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error
	loading      bool
	statusLine   string

	// Interrogation target: index into targets(); the last entry is the
	// broadcast sentinel.
	targetIdx int

	// Scenario selection state
	showScenarioModal bool
	scenarios         []string
	scenarioMap       map[string]string
	selectedScenario  int
	loadingScenarios  bool

	// Quit confirmation state
	showQuitModal bool

	// Case report, set once the player ends the case
	report map[string]interface{}

	// Progress bar state
	progressTick int
}

type askResponseMsg struct {
	response *handlers.AskTurnResponse
	err      error
}

type sessionMsg struct {
	session *handlers.SessionResponse
	err     error
}

type scenariosLoadedMsg struct {
	scenarios   []string
	scenarioMap map[string]string
	err         error
}

type sessionCreatedMsg struct {
	session *handlers.SessionResponse
	err     error
}

type caseEndedMsg struct {
	report map[string]interface{}
	err    error
}

type notesSavedMsg struct {
	err error
}

type progressTickMsg struct{}

type clockTickMsg struct{}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	suspectStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	sampleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	bubbleStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("86")).
			Padding(0, 1)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = chat.MaxQuestionLength
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		config:            cfg,
		client:            client,
		textarea:          ta,
		chatViewport:      chatVp,
		metaViewport:      metaVp,
		ready:             false,
		showScenarioModal: true,
		loadingScenarios:  true,
		selectedScenario:  0,
	}
}

// targets lists the addressable suspects followed by the broadcast
// pseudo-target.
func (m *ConsoleUI) targets() []string {
	if m.session == nil {
		return []string{chat.TargetAll}
	}
	return append(append([]string{}, m.session.Suspects...), chat.TargetAll)
}

func (m *ConsoleUI) currentTarget() string {
	t := m.targets()
	if m.targetIdx < 0 || m.targetIdx >= len(t) {
		return chat.TargetAll
	}
	return t[m.targetIdx]
}

func formatSuspectTurn(msg chat.Message, width int) string {
	prefix := msg.Speaker + ": "
	wrapped := wordwrap.String(msg.Text, width-len(prefix))
	return speakerStyle.Render(prefix) + suspectStyle.Render(wrapped)
}

func formatPlayerTurn(msg chat.Message, width int) string {
	who := "You"
	if msg.Speaker == chat.SpeakerBroadcast {
		who = "You (to everyone)"
	}
	return userStyle.Render(who+": ") + wordwrap.String(msg.Text, width-6)
}

// writeChatContent rebuilds the interrogation log for the current
// viewport width.
func (m *ConsoleUI) writeChatContent() {
	chatWidth := m.chatViewport.Width - 6 // Account for left(3) + right(3) padding

	var content strings.Builder
	content.WriteString(titleStyle.Render("LLM DETECTIVE") + "\n\n")
	content.WriteString("Question the suspects. Tab switches who you are talking to.\n\n")

	for _, line := range m.pinned {
		content.WriteString(sampleStyle.Render(wordwrap.String("❝ "+line+" ❞", chatWidth)) + "\n\n")
	}

	content.WriteString(separatorStyle.Render(strings.Repeat("─", max(chatWidth-6, 1))) + "\n\n")

	for _, msg := range m.messages {
		switch msg.Role {
		case chat.RoleNPC:
			content.WriteString(formatSuspectTurn(msg, chatWidth) + "\n\n")
		case chat.RolePlayer:
			content.WriteString(formatPlayerTurn(msg, chatWidth) + "\n\n")
		}
	}

	if m.loading {
		content.WriteString(m.renderProgressBar())
	}

	if m.err != nil {
		content.WriteString(errorStyle.Render("Error: "+m.err.Error()) + "\n\n")
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

func (m *ConsoleUI) writeMetadata() {
	if m.session == nil {
		return
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("CASE FILE") + "\n\n")

	content.WriteString("Case:\n")
	content.WriteString(m.session.Title + "\n\n")

	content.WriteString("Session:\n")
	content.WriteString(m.session.ID.String()[:8] + "...\n\n")

	content.WriteString("Elapsed:\n")
	content.WriteString(m.session.Elapsed + "\n\n")

	content.WriteString("Talking to:\n")
	target := m.currentTarget()
	if target == chat.TargetAll {
		target = "Everyone"
	}
	content.WriteString(speakerStyle.Render(target) + "\n\n")

	content.WriteString("Evidence:\n")
	if len(m.session.Evidence) == 0 {
		content.WriteString("None yet\n")
	} else {
		for _, id := range m.session.Evidence {
			content.WriteString("• " + id + "\n")
		}
	}
	content.WriteString("\n")

	if m.session.Bubble.Visible {
		content.WriteString("Speaking:\n")
		content.WriteString(bubbleStyle.Render(wordwrap.String(
			m.session.Bubble.Speaker+": "+m.session.Bubble.Text,
			m.metaViewport.Width-6)) + "\n\n")
	}

	if m.statusLine != "" {
		content.WriteString(loadingStyle.Render(m.statusLine) + "\n\n")
	}

	content.WriteString("Commands:\n")
	content.WriteString("• Tab: Switch suspect\n")
	content.WriteString("• Enter: Ask\n")
	content.WriteString("• Ctrl+Y: Copy log\n")
	content.WriteString("• /note <text>: Notes\n")
	content.WriteString("• /end: Close case\n")
	content.WriteString("• Ctrl+C: Quit\n")

	m.metaViewport.SetContent(content.String())
}

func (m ConsoleUI) Init() tea.Cmd {
	if m.showScenarioModal {
		return m.loadScenarios()
	}
	return textarea.Blink
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle scenario modal first
	if m.showScenarioModal {
		return m.updateScenarioModal(msg)
	}

	// Handle quit modal second
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.textarea, tiCmd = m.textarea.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(tiCmd, vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.writeChatContent()
		m.writeMetadata()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil

		case tea.KeyTab:
			m.targetIdx = (m.targetIdx + 1) % len(m.targets())
			m.writeMetadata()
			return m, nil

		case tea.KeyCtrlY:
			if err := clipboard.WriteAll(m.plainTranscript()); err != nil {
				m.statusLine = "Copy failed: " + err.Error()
			} else {
				m.statusLine = "Transcript copied"
			}
			m.writeMetadata()
			return m, nil

		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}

			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}

			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}

			m.loading = true
			m.err = nil
			m.progressTick = 0
			m.writeChatContent()

			return m, tea.Batch(m.ask(m.currentTarget(), input), progressTick())
		}

	case askResponseMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.err = nil
			m.messages = append(m.messages, msg.response.Turns...)
			if msg.response.InputCleared {
				m.textarea.Reset()
			}
		}
		m.writeChatContent()
		return m, m.refreshSession()

	case sessionMsg:
		if msg.err == nil && msg.session != nil {
			m.session = msg.session
			m.writeMetadata()
		}

	case caseEndedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.writeChatContent()
		} else {
			m.report = msg.report
		}
		return m, nil

	case notesSavedMsg:
		if msg.err != nil {
			m.statusLine = "Notes failed: " + msg.err.Error()
		} else {
			m.statusLine = "Notes saved"
		}
		m.writeMetadata()

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeChatContent()
			return m, progressTick()
		}

	case clockTickMsg:
		if m.report == nil {
			return m, tea.Batch(m.refreshSession(), clockTick())
		}
	}

	// Update components for non-mouse events
	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

func (m *ConsoleUI) resize() {
	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	m.chatViewport.Width = chatWidth - 2
	m.chatViewport.Height = m.height - 7
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4
	m.textarea.SetWidth(chatWidth - 4)
	m.ready = true
}

// plainTranscript renders the log without styling, for the clipboard.
func (m *ConsoleUI) plainTranscript() string {
	var b strings.Builder
	for _, msg := range m.messages {
		who := msg.Speaker
		if msg.Role == chat.RolePlayer {
			who = "You"
			if msg.Speaker == chat.SpeakerBroadcast {
				who = "You (to everyone)"
			}
		}
		b.WriteString(who + ": " + msg.Text + "\n")
	}
	return b.String()
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	cmd := strings.TrimSpace(input)

	switch {
	case cmd == "/help":
		helpText := `
Commands:
• /help - Show this help
• /note <text> - Save a note to the case file
• /end - Close the case and freeze the clock
• Tab - Switch which suspect you question
• Ctrl+Y - Copy the transcript
• Ctrl+C - Quit

How to play:
• Question each suspect, or everyone at once
• Mentioned evidence is collected automatically
`
		currentContent := m.chatViewport.View()
		m.chatViewport.SetContent(currentContent + titleStyle.Render("Help:") + helpText + "\n")
		m.chatViewport.GotoBottom()
		m.textarea.Reset()
		return m, nil

	case strings.HasPrefix(cmd, "/note "):
		text := strings.TrimSpace(strings.TrimPrefix(cmd, "/note "))
		m.textarea.Reset()
		return m, m.saveNotes(text)

	case cmd == "/end":
		m.textarea.Reset()
		m.loading = true
		return m, m.endCase()
	}

	m.textarea.Reset()
	return m, nil
}

func (m ConsoleUI) ask(target, question string) tea.Cmd {
	return func() tea.Msg {
		resp, err := sendAsk(m.client, m.config.APIBaseURL, m.session.ID, target, question)
		return askResponseMsg{resp, err}
	}
}

func (m ConsoleUI) refreshSession() tea.Cmd {
	return func() tea.Msg {
		s, err := getSession(m.client, m.config.APIBaseURL, m.session.ID)
		return sessionMsg{s, err}
	}
}

func (m ConsoleUI) saveNotes(text string) tea.Cmd {
	return func() tea.Msg {
		return notesSavedMsg{saveNotes(m.client, m.config.APIBaseURL, m.session.ID, text)}
	}
}

func (m ConsoleUI) endCase() tea.Cmd {
	return func() tea.Msg {
		report, err := endCase(m.client, m.config.APIBaseURL, m.session.ID)
		return caseEndedMsg{report, err}
	}
}

func (m ConsoleUI) loadScenarios() tea.Cmd {
	return func() tea.Msg {
		orderedNames, scenarioMap, err := listScenarios(m.client, m.config.APIBaseURL)
		return scenariosLoadedMsg{orderedNames, scenarioMap, err}
	}
}

func (m ConsoleUI) createSessionFromScenario(scenarioFile string) tea.Cmd {
	return func() tea.Msg {
		s, err := createSession(m.client, m.config.APIBaseURL, scenarioFile)
		return sessionCreatedMsg{s, err}
	}
}

func (m ConsoleUI) loadPinned() tea.Cmd {
	return func() tea.Msg {
		transcript, err := getTranscript(m.client, m.config.APIBaseURL, m.session.ID, "")
		if err != nil {
			return sessionMsg{nil, err}
		}
		lines := make([]string, 0, len(transcript.Pinned))
		for _, c := range transcript.Pinned {
			lines = append(lines, c.Name+": "+c.SampleLine)
		}
		return pinnedMsg{lines}
	}
}

type pinnedMsg struct {
	lines []string
}

func (m ConsoleUI) updateScenarioModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case scenariosLoadedMsg:
		m.loadingScenarios = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.scenarios = msg.scenarios
			m.scenarioMap = msg.scenarioMap
		}

	case pinnedMsg:
		m.pinned = msg.lines
		m.showScenarioModal = false
		m.writeChatContent()
		m.writeMetadata()
		m.textarea.Focus()
		return m, tea.Batch(textarea.Blink, clockTick())

	case sessionCreatedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.session = msg.session
		m.targetIdx = 0
		if m.width > 0 && m.height > 0 {
			m.resize()
		}
		return m, m.loadPinned()

	case tea.KeyMsg:
		if m.loadingScenarios || m.err != nil {
			if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
				return m, tea.Quit
			}
			return m, nil
		}

		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyUp:
			if m.selectedScenario > 0 {
				m.selectedScenario--
			}
		case tea.KeyDown:
			if m.selectedScenario < len(m.scenarios)-1 {
				m.selectedScenario++
			}
		case tea.KeyEnter:
			if len(m.scenarios) > 0 {
				scenarioName := m.scenarios[m.selectedScenario]
				scenarioFile := m.scenarioMap[scenarioName]
				m.loading = true
				return m, m.createSessionFromScenario(scenarioFile)
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				if !m.showScenarioModal {
					m.textarea.Focus()
					return m, textarea.Blink
				}
				return m, nil
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Leave the Case?"))
	content.WriteString("\n\n")
	content.WriteString("Your progress is saved; the clock stops until you return.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderScenarioModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder

	if m.loadingScenarios {
		content.WriteString(modalTitleStyle.Render("Loading Cases..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Fetching the case board..."))
	} else if m.err != nil {
		content.WriteString(modalTitleStyle.Render("Error"))
		content.WriteString("\n\n")
		content.WriteString(errorStyle.Render(fmt.Sprintf("Failed to load cases: %v", m.err)))
		content.WriteString("\n\n")
		content.WriteString("Press Ctrl+C to exit")
	} else if m.loading {
		content.WriteString(modalTitleStyle.Render("Opening Case..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Gathering the suspects..."))
	} else {
		content.WriteString(modalTitleStyle.Render("Select a Case"))
		content.WriteString("\n\n")

		for i, name := range m.scenarios {
			if i == m.selectedScenario {
				content.WriteString(modalSelectedItemStyle.Render(fmt.Sprintf("▶ %s", name)))
			} else {
				content.WriteString(modalItemStyle.Render(fmt.Sprintf("  %s", name)))
			}
			content.WriteString("\n")
		}

		content.WriteString("\n")
		content.WriteString(promptStyle.Render("Use ↑/↓ to navigate, Enter to select, Ctrl+C to exit"))
	}

	modal := modalStyle.Width(60).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderReport() string {
	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Case Closed"))
	content.WriteString("\n\n")
	for k, v := range m.report {
		content.WriteString(fmt.Sprintf("%s: %v\n", k, v))
	}
	content.WriteString("\n")
	content.WriteString(promptStyle.Render("Press Ctrl+C to exit"))

	modal := modalStyle.Width(60).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showScenarioModal {
		return m.renderScenarioModal()
	}

	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if m.report != nil {
		return m.renderReport()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", max(chatWidth-4, 1))),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.chatViewport.Width - 6
	if usable <= 0 {
		usable = 30 // fallback before sizing
	}

	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓")
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}

func clockTick() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return clockTickMsg{}
	})
}
