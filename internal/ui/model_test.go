package ui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nconklindev/workerimport/internal/decoder"
	"github.com/nconklindev/workerimport/internal/importer"
	"github.com/nconklindev/workerimport/internal/store"
	"github.com/nconklindev/workerimport/internal/types"
)

const roster = "Nombre,Apellido Paterno,Puesto,CURP,Notas\n" +
	"Juan,García,Operador,,\n" +
	",García,Operador,,\n" +
	"Ana,López,Supervisor,ABC123,\n"

func newModel(t *testing.T) Model {
	t.Helper()

	im := importer.New(store.NewMemoryRepository(), importer.Config{}, zerolog.Nop())
	dir := t.TempDir()
	return InitialModel(Options{
		Importer:    im,
		Target:      importer.Target{OrganizationID: uuid.New()},
		PreviewRows: 2,
		StartDir:    dir,
		TemplateDir: dir,
		Logger:      zerolog.Nop(),
	})
}

func loadRoster(t *testing.T, m Model) Model {
	t.Helper()

	path := filepath.Join(t.TempDir(), "trabajadores.csv")
	if err := os.WriteFile(path, []byte(roster), 0o644); err != nil {
		t.Fatal(err)
	}
	msg := loadFile(path)()
	updated, _ := m.Update(msg)
	return updated.(Model)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestFileLoadedShowsPreview(t *testing.T) {
	m := loadRoster(t, newModel(t))

	if m.state != statePreview {
		t.Fatalf("Expected preview state, got %v", m.state)
	}
	if got := len(m.table.Rows()); got != 2 {
		t.Errorf("Expected 2 preview rows, got %d", got)
	}

	view := m.View()
	for _, want := range []string{"Valid: 1", "With errors: 2", "Ignored columns: Notas", "Showing first 2 of 3 rows"} {
		if !strings.Contains(view, want) {
			t.Errorf("Preview view missing %q", want)
		}
	}
}

func TestFileLoadError(t *testing.T) {
	m := newModel(t)
	updated, _ := m.Update(fileLoadedMsg{err: decoder.ErrUnsupportedFormat})
	m = updated.(Model)

	if m.state != stateError {
		t.Fatalf("Expected error state, got %v", m.state)
	}
	if !strings.Contains(m.View(), decoder.ErrUnsupportedFormat.Error()) {
		t.Error("Error view should show the error")
	}

	updated, _ = m.Update(key("c"))
	m = updated.(Model)
	if m.state != stateFilePicker || m.err != nil {
		t.Errorf("Expected c to return to the file picker, got state %v err %v", m.state, m.err)
	}
}

func TestChangeFileResetsSession(t *testing.T) {
	m := loadRoster(t, newModel(t))
	session := m.session

	updated, _ := m.Update(key("c"))
	m = updated.(Model)

	if m.state != stateFilePicker {
		t.Fatalf("Expected file picker state, got %v", m.state)
	}
	if m.session != nil || len(session.Rows()) != 0 {
		t.Error("Expected loaded rows to be discarded")
	}
}

func TestEnterWithoutValidRows(t *testing.T) {
	m := newModel(t)
	session, err := importer.LoadReader("malos.csv", strings.NewReader("Nombre,Puesto\n,Operador\n"))
	if err != nil {
		t.Fatal(err)
	}
	updated, _ := m.Update(fileLoadedMsg{session: session})
	m = updated.(Model)

	updated, cmd := m.Update(key("enter"))
	m = updated.(Model)
	if m.state != statePreview {
		t.Errorf("Expected to stay in preview, got %v", m.state)
	}
	if cmd != nil {
		t.Error("Expected no command when nothing can be imported")
	}
	if !strings.Contains(m.View(), "Nothing to import") {
		t.Error("Expected a status line explaining why")
	}
}

func TestImportComplete(t *testing.T) {
	tests := []struct {
		name      string
		msg       importCompleteMsg
		wantState state
		wantView  string
	}{
		{"success", importCompleteMsg{result: types.ImportResult{Success: 3, Failed: 1}}, stateComplete, "Created: 3"},
		{"cancelled", importCompleteMsg{result: types.ImportResult{Success: 1, Skipped: 2}, err: context.Canceled}, stateComplete, "Not attempted: 2"},
		{"failure", importCompleteMsg{err: errors.New("boom")}, stateError, "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := loadRoster(t, newModel(t))
			m.state = stateImporting

			updated, _ := m.Update(tt.msg)
			m = updated.(Model)

			if m.state != tt.wantState {
				t.Fatalf("Expected state %v, got %v", tt.wantState, m.state)
			}
			if !strings.Contains(m.View(), tt.wantView) {
				t.Errorf("View missing %q:\n%s", tt.wantView, m.View())
			}
		})
	}
}

func TestWaitForProgress(t *testing.T) {
	progressChan := make(chan int, 2)
	resultChan := make(chan importResultMsg, 1)

	progressChan <- 50
	progressChan <- 100
	resultChan <- importResultMsg{result: types.ImportResult{Success: 2}}
	close(progressChan)
	close(resultChan)

	wait := waitForProgress(progressChan, resultChan)
	if got := wait(); got != progressMsg(50) {
		t.Errorf("Expected progress 50, got %v", got)
	}
	if got := wait(); got != progressMsg(100) {
		t.Errorf("Expected progress 100, got %v", got)
	}
	done, ok := wait().(importCompleteMsg)
	if !ok {
		t.Fatal("Expected importCompleteMsg after the progress channel closes")
	}
	if done.result.Success != 2 {
		t.Errorf("Expected 2 successes, got %d", done.result.Success)
	}
}

func TestSaveTemplate(t *testing.T) {
	m := newModel(t)
	msg, ok := m.saveTemplate()().(templateSavedMsg)
	if !ok || msg.err != nil {
		t.Fatalf("Expected template to be saved, got %+v", msg)
	}
	if _, err := os.Stat(msg.path); err != nil {
		t.Errorf("Template not on disk: %v", err)
	}

	updated, _ := m.Update(msg)
	if !strings.Contains(updated.(Model).View(), "Template saved") {
		t.Error("Expected confirmation in the file picker view")
	}
}

// pickOnlyFile opens the picker on a directory holding just name and
// presses enter on it.
func pickOnlyFile(t *testing.T, name string) Model {
	t.Helper()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(roster), 0o644); err != nil {
		t.Fatal(err)
	}

	m := InitialModel(Options{
		Importer:    importer.New(store.NewMemoryRepository(), importer.Config{}, zerolog.Nop()),
		StartDir:    dir,
		TemplateDir: dir,
		Logger:      zerolog.Nop(),
	})

	updated, _ := m.Update(m.Init()())
	updated, _ = updated.(Model).Update(key("enter"))
	return updated.(Model)
}

func TestFilePickerExtensions(t *testing.T) {
	tests := []struct {
		name      string
		file      string
		wantState state
	}{
		{"lowercase csv", "nomina.csv", stateLoading},
		{"uppercase csv", "NOMINA.CSV", stateLoading},
		{"mixed case xlsx", "Plantilla.Xlsx", stateLoading},
		{"unsupported", "notas.txt", stateFilePicker},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := pickOnlyFile(t, tt.file)
			if m.state != tt.wantState {
				t.Fatalf("Expected state %v, got %v (status %q)", tt.wantState, m.state, m.status)
			}
			if tt.wantState == stateFilePicker && !strings.Contains(m.status, "not a supported file") {
				t.Errorf("Expected unsupported-file status, got %q", m.status)
			}
		})
	}
}
