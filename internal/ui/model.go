package ui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/nconklindev/workerimport/internal/decoder"
	"github.com/nconklindev/workerimport/internal/importer"
	"github.com/nconklindev/workerimport/internal/template"
	"github.com/nconklindev/workerimport/internal/types"
)

type state int

const (
	stateFilePicker state = iota
	stateLoading
	statePreview
	stateImporting
	stateComplete
	stateError
)

type Options struct {
	Importer    *importer.Importer
	Target      importer.Target
	PreviewRows int
	// StartDir is where the file picker opens; empty means the working directory.
	StartDir string
	// TemplateDir receives the template written with the t key.
	TemplateDir string
	Logger      zerolog.Logger
}

type Model struct {
	state        state
	opts         Options
	filepicker   filepicker.Model
	spinner      spinner.Model
	table        table.Model
	progress     progress.Model
	selectedFile string
	session      *importer.Session
	result       types.ImportResult
	cancelled    bool
	status       string
	err          error
	width        int
	height       int
	cancel       context.CancelFunc
	progressChan chan int
	resultChan   chan importResultMsg
}

type importResultMsg struct {
	result types.ImportResult
	err    error
}

type fileLoadedMsg struct {
	session *importer.Session
	err     error
}

type importCompleteMsg struct {
	result types.ImportResult
	err    error
}

type templateSavedMsg struct {
	path string
	err  error
}

type progressMsg int

type waitForProgressMsg struct{}

func InitialModel(opts Options) Model {
	if opts.PreviewRows < 1 {
		opts.PreviewRows = 10
	}
	if opts.TemplateDir == "" {
		opts.TemplateDir, _ = os.Getwd()
	}

	// AllowedTypes matches suffixes case-sensitively, so extensions are
	// checked with decoder.Supported on selection instead.
	fp := filepicker.New()
	fp.CurrentDirectory = opts.StartDir
	if fp.CurrentDirectory == "" {
		fp.CurrentDirectory, _ = os.Getwd()
	}

	// Set filepicker colors to match theme
	fp.Styles.Cursor = lipgloss.NewStyle().Foreground(colorAccent)
	fp.Styles.Symlink = lipgloss.NewStyle().Foreground(colorWarm)
	fp.Styles.Directory = lipgloss.NewStyle().Foreground(colorWarm)
	fp.Styles.File = lipgloss.NewStyle().Foreground(colorText)
	fp.Styles.Permission = lipgloss.NewStyle().Foreground(colorMuted)
	fp.Styles.Selected = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	fp.Styles.FileSize = lipgloss.NewStyle().Foreground(colorMuted)

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = lipgloss.NewStyle().Foreground(colorAccent)

	tbl := table.New(table.WithColumns(previewColumns), table.WithFocused(true))
	ts := table.DefaultStyles()
	ts.Header = ts.Header.Foreground(colorAccent).Bold(true)
	ts.Selected = ts.Selected.Foreground(colorText).Background(colorAccent)
	tbl.SetStyles(ts)

	return Model{
		state:      stateFilePicker,
		opts:       opts,
		filepicker: fp,
		spinner:    sp,
		table:      tbl,
		progress:   progress.New(progress.WithGradient("#FF8C42", "#FF9F5A")),
	}
}

var previewColumns = []table.Column{
	{Title: "Row", Width: 5},
	{Title: "Name", Width: 28},
	{Title: "Position", Width: 16},
	{Title: "CURP", Width: 18},
	{Title: "Status", Width: 40},
}

func (m Model) Init() tea.Cmd {
	return m.filepicker.Init()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// Subtract space for title, subtitle, help text, and padding
		height := msg.Height - 14
		if height < 5 {
			height = 5
		}
		m.filepicker.SetHeight(height)
		m.progress.Width = min(msg.Width-12, 80)

		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case stateFilePicker:
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "t":
				return m, m.saveTemplate()
			}

		case stateLoading:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			return m, nil

		case statePreview:
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "c":
				return m.changeFile()
			case "t":
				return m, m.saveTemplate()
			case "enter":
				if m.session.Summary().Valid == 0 {
					m.status = "Nothing to import: every row has errors"
					return m, nil
				}
				m.state = stateImporting
				return m.startImport()
			}
			var cmd tea.Cmd
			m.table, cmd = m.table.Update(msg)
			return m, cmd

		case stateImporting:
			switch msg.String() {
			case "ctrl+c", "esc":
				if m.cancel != nil {
					m.cancel()
				}
				m.status = "Cancelling: waiting for rows in flight..."
			}
			return m, nil

		case stateComplete, stateError:
			if msg.String() == "c" {
				return m.changeFile()
			}
			return m, tea.Quit
		}

	case fileLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = stateError
			return m, nil
		}
		m.session = msg.session
		m.table.SetRows(previewRows(m.session.Preview(m.opts.PreviewRows)))
		m.table.SetHeight(min(m.opts.PreviewRows, len(m.session.Rows())) + 1)
		m.table.GotoTop()
		m.status = ""
		m.state = statePreview
		return m, nil

	case templateSavedMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Could not save template: %v", msg.err)
		} else {
			m.status = fmt.Sprintf("Template saved to %s", msg.path)
		}
		return m, nil

	case importCompleteMsg:
		m.cancel = nil
		m.result = msg.result
		m.status = ""
		if errors.Is(msg.err, context.Canceled) {
			m.cancelled = true
			m.state = stateComplete
			return m, nil
		}
		if msg.err != nil {
			m.err = msg.err
			m.state = stateError
			return m, nil
		}
		m.state = stateComplete
		return m, m.progress.SetPercent(1)

	case spinner.TickMsg:
		if m.state != stateLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case progressMsg:
		if m.state == stateImporting {
			cmd := m.progress.SetPercent(float64(msg) / 100)
			return m, tea.Batch(cmd, waitForProgress(m.progressChan, m.resultChan))
		}
		return m, nil

	case waitForProgressMsg:
		return m, waitForProgress(m.progressChan, m.resultChan)
	}

	// Handle filepicker updates
	if m.state == stateFilePicker {
		var cmd tea.Cmd
		m.filepicker, cmd = m.filepicker.Update(msg)

		if didSelect, path := m.filepicker.DidSelectFile(msg); didSelect {
			if !decoder.Supported(path) {
				m.status = fmt.Sprintf("%s is not a supported file (.csv, .xlsx, .xls)", filepath.Base(path))
				return m, cmd
			}
			m.selectedFile = path
			m.state = stateLoading
			return m, tea.Batch(m.spinner.Tick, loadFile(path))
		}

		return m, cmd
	}

	return m, nil
}

// changeFile discards the loaded session and returns to the file picker.
func (m Model) changeFile() (Model, tea.Cmd) {
	if m.session != nil {
		m.session.Reset()
	}
	m.session = nil
	m.selectedFile = ""
	m.result = types.ImportResult{}
	m.cancelled = false
	m.err = nil
	m.status = ""
	m.table.SetRows(nil)
	m.progress.SetPercent(0)
	m.state = stateFilePicker
	return m, m.filepicker.Init()
}

func loadFile(path string) tea.Cmd {
	return func() tea.Msg {
		session, err := importer.Load(path)
		return fileLoadedMsg{session: session, err: err}
	}
}

func (m Model) saveTemplate() tea.Cmd {
	dir := m.opts.TemplateDir
	return func() tea.Msg {
		path, err := template.Save(dir, false)
		return templateSavedMsg{path: path, err: err}
	}
}

func (m Model) startImport() (Model, tea.Cmd) {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.cancelled = false
	m.status = ""
	m.progressChan = make(chan int, 100)
	m.resultChan = make(chan importResultMsg, 1)

	// Capture for the goroutine
	progressChan := m.progressChan
	resultChan := m.resultChan
	session := m.session
	im := m.opts.Importer
	target := m.opts.Target
	logger := m.opts.Logger

	cmd := tea.Batch(
		func() tea.Msg {
			go func() {
				defer cancel()
				logger.Info().Str("file", session.FileName).Int("valid", session.Summary().Valid).Msg("import started")

				result, err := session.Commit(ctx, im, target, func(p int) {
					select {
					case progressChan <- p:
					case <-ctx.Done():
					}
				})

				resultChan <- importResultMsg{result: result, err: err}
				close(progressChan)
				close(resultChan)
			}()

			return waitForProgressMsg{}
		},
		m.progress.SetPercent(0),
	)

	return m, cmd
}

func waitForProgress(progressChan chan int, resultChan chan importResultMsg) tea.Cmd {
	return func() tea.Msg {
		if progressChan == nil {
			return nil
		}

		p, ok := <-progressChan
		if !ok {
			// Progress channel closed, check result
			res, ok := <-resultChan
			if ok {
				return importCompleteMsg(res)
			}
			return nil
		}

		return progressMsg(p)
	}
}

func previewRows(rows []types.ParsedRow) []table.Row {
	out := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		status := "✓ valid"
		if !r.IsValid {
			status = "✗ " + strings.Join(r.Errors, "; ")
		}
		out = append(out, table.Row{fmt.Sprint(r.Row), r.FullName(), r.Puesto, r.CURP, status})
	}
	return out
}

func (m Model) View() string {
	switch m.state {
	case stateFilePicker:
		return m.viewFilePicker()
	case stateLoading:
		return m.viewLoading()
	case statePreview:
		return m.viewPreview()
	case stateImporting:
		return m.viewImporting()
	case stateComplete:
		return m.viewComplete()
	case stateError:
		return m.viewError()
	}
	return ""
}

func (m Model) viewFilePicker() string {
	var s strings.Builder

	title := TitleStyle.Render("👷 Worker Import")

	authorSpan := SubtitleStyle.Render("by Nick Conklin • ")
	githubSpan := LinkStyle.Render("https://github.com/nconklindev/workerimport")
	byLine := lipgloss.JoinHorizontal(lipgloss.Top, authorSpan, githubSpan)

	s.WriteString(lipgloss.JoinVertical(lipgloss.Left, title, byLine))
	s.WriteString("\n")
	s.WriteString(SubtitleStyle.Render("Select a CSV or Excel roster to import"))
	s.WriteString("\n\n")
	s.WriteString(m.filepicker.View())
	s.WriteString("\n")
	if m.status != "" {
		s.WriteString("\n")
		s.WriteString(StatusStyle.Render(m.status))
	}
	s.WriteString("\n")
	s.WriteString(HelpStyle.Render("t: save blank template • q: quit"))

	return s.String()
}

func (m Model) viewLoading() string {
	return BoxStyle.Render(fmt.Sprintf("%s Reading %s...", m.spinner.View(), filepath.Base(m.selectedFile)))
}

func (m Model) viewPreview() string {
	var s strings.Builder
	sum := m.session.Summary()

	s.WriteString(TitleStyle.Render("👷 Review Import"))
	s.WriteString("\n")
	s.WriteString(SubtitleStyle.Render(fmt.Sprintf("File: %s", filepath.Base(m.session.FileName))))
	s.WriteString("\n\n")

	s.WriteString(fmt.Sprintf("Rows: %d   ", sum.Total))
	s.WriteString(ValidStyle.Render(fmt.Sprintf("Valid: %d", sum.Valid)))
	s.WriteString("   ")
	if sum.Invalid > 0 {
		s.WriteString(InvalidStyle.Render(fmt.Sprintf("With errors: %d", sum.Invalid)))
	} else {
		s.WriteString(fmt.Sprintf("With errors: %d", sum.Invalid))
	}
	s.WriteString("\n")

	if ignored := m.session.IgnoredHeaders(); len(ignored) > 0 {
		s.WriteString(SubtitleStyle.Render(fmt.Sprintf("Ignored columns: %s", strings.Join(ignored, ", "))))
	}
	s.WriteString("\n")

	s.WriteString(m.table.View())
	s.WriteString("\n")
	if shown := len(m.session.Preview(m.opts.PreviewRows)); shown < sum.Total {
		s.WriteString(SubtitleStyle.Render(fmt.Sprintf("Showing first %d of %d rows", shown, sum.Total)))
		s.WriteString("\n")
	}

	if m.status != "" {
		s.WriteString(StatusStyle.Render(m.status))
		s.WriteString("\n")
	}
	s.WriteString(HelpStyle.Render(fmt.Sprintf("↑/↓: scroll • enter: import %d valid rows • c: change file • t: save template • q: quit", sum.Valid)))

	return BoxStyle.Render(s.String())
}

func (m Model) viewImporting() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("👷 Importing..."))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("Creating %d workers from %s", m.session.Summary().Valid, filepath.Base(m.session.FileName)))
	s.WriteString("\n\n")
	s.WriteString(m.progress.View())
	s.WriteString("\n")
	if m.status != "" {
		s.WriteString("\n")
		s.WriteString(StatusStyle.Render(m.status))
	}
	s.WriteString("\n")
	s.WriteString(HelpStyle.Render("esc: cancel"))

	return BoxStyle.Render(s.String())
}

func (m Model) viewComplete() string {
	var s strings.Builder

	if m.cancelled {
		s.WriteString(ErrorStyle.Render("✗ Import Cancelled"))
	} else {
		s.WriteString(TitleStyle.Render("✓ Import Complete!"))
	}
	s.WriteString("\n\n")

	s.WriteString(SuccessStyle.Render(fmt.Sprintf("Created: %d", m.result.Success)))
	s.WriteString("\n")
	if m.result.Failed > 0 {
		s.WriteString(InvalidStyle.Render(fmt.Sprintf("Failed:  %d", m.result.Failed)))
	} else {
		s.WriteString(fmt.Sprintf("Failed:  %d", m.result.Failed))
	}
	s.WriteString("\n")
	if m.result.Skipped > 0 {
		s.WriteString(fmt.Sprintf("Not attempted: %d\n", m.result.Skipped))
	}
	s.WriteString("\n")
	s.WriteString(HelpStyle.Render("c: import another file • any other key: exit"))

	return BoxStyle.Render(s.String())
}

func (m Model) viewError() string {
	var s strings.Builder

	s.WriteString(ErrorStyle.Render("✗ Error"))
	s.WriteString("\n\n")
	s.WriteString(m.err.Error())
	s.WriteString("\n\n")
	s.WriteString(HelpStyle.Render("c: choose another file • any other key: exit"))

	return BoxStyle.Render(s.String())
}
