package importer

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/nconklindev/workerimport/internal/alias"
	"github.com/nconklindev/workerimport/internal/decoder"
	"github.com/nconklindev/workerimport/internal/types"
	"github.com/nconklindev/workerimport/internal/validation"
)

var (
	ErrImportInProgress = errors.New("an import is already running")
	ErrNothingToImport  = errors.New("no rows loaded")
)

// Session is the state of one load/preview/commit cycle. Parsed rows never
// change after loading; progress and result are updated by Commit and are
// safe to read from another goroutine.
type Session struct {
	FileName string

	rows    []types.ParsedRow
	ignored []string

	mu        sync.Mutex
	importing bool
	progress  int
	result    *types.ImportResult
}

func Load(path string) (*Session, error) {
	data, err := decoder.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewSession(data), nil
}

func LoadReader(name string, r io.Reader) (*Session, error) {
	data, err := decoder.Decode(name, r)
	if err != nil {
		return nil, err
	}
	return NewSession(data), nil
}

func NewSession(data *types.FileData) *Session {
	return &Session{
		FileName: data.Name,
		rows:     validation.ParseFile(data),
		ignored:  alias.MapHeaders(data.Headers).Ignored(),
	}
}

// Rows returns a copy of every parsed row.
func (s *Session) Rows() []types.ParsedRow {
	return copyRows(s.rows)
}

func (s *Session) Summary() types.Summary {
	return validation.Summarize(s.rows)
}

// Preview returns a copy of at most the first n rows.
func (s *Session) Preview(n int) []types.ParsedRow {
	if n < 0 || n > len(s.rows) {
		n = len(s.rows)
	}
	return copyRows(s.rows[:n])
}

// ValidRows returns the valid rows in source order.
func (s *Session) ValidRows() []types.ParsedRow {
	var out []types.ParsedRow
	for _, r := range s.rows {
		if r.IsValid {
			out = append(out, cloneRow(r))
		}
	}
	return out
}

func copyRows(rows []types.ParsedRow) []types.ParsedRow {
	out := make([]types.ParsedRow, len(rows))
	for i, r := range rows {
		out[i] = cloneRow(r)
	}
	return out
}

// cloneRow detaches the Errors slice so callers cannot reach session state.
func cloneRow(r types.ParsedRow) types.ParsedRow {
	r.Errors = append([]string(nil), r.Errors...)
	return r
}

// IgnoredHeaders lists source columns that matched no worker field.
func (s *Session) IgnoredHeaders() []string {
	return append([]string(nil), s.ignored...)
}

// Reset drops everything loaded so a different file can be chosen.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.FileName = ""
	s.rows = nil
	s.ignored = nil
	s.progress = 0
	s.result = nil
}

func (s *Session) Importing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.importing
}

func (s *Session) Progress() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

func (s *Session) Result() (types.ImportResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return types.ImportResult{}, false
	}
	return *s.result, true
}

// Commit runs the importer over the session's rows, mirroring progress into
// the session. onProgress may be nil.
func (s *Session) Commit(ctx context.Context, im *Importer, target Target, onProgress func(int)) (types.ImportResult, error) {
	s.mu.Lock()
	if s.importing {
		s.mu.Unlock()
		return types.ImportResult{}, ErrImportInProgress
	}
	if len(s.rows) == 0 {
		s.mu.Unlock()
		return types.ImportResult{}, ErrNothingToImport
	}
	s.importing = true
	s.progress = 0
	s.result = nil
	rows := s.rows
	s.mu.Unlock()

	result, err := im.Commit(ctx, target, rows, func(p int) {
		s.mu.Lock()
		s.progress = p
		s.mu.Unlock()
		if onProgress != nil {
			onProgress(p)
		}
	})

	s.mu.Lock()
	s.importing = false
	if err == nil || result.Success+result.Failed > 0 {
		s.result = &result
	}
	s.mu.Unlock()

	return result, err
}
