package importer_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nconklindev/workerimport/internal/importer"
	"github.com/nconklindev/workerimport/internal/store"
	"github.com/nconklindev/workerimport/internal/types"
)

type fakeCreator struct {
	mu          sync.Mutex
	fail        map[string]error
	calls       []string
	inFlight    int
	maxInFlight int
	delay       time.Duration
	onCall      func(n int)
}

func (f *fakeCreator) CreateWorker(ctx context.Context, w *store.Worker) error {
	f.mu.Lock()
	f.calls = append(f.calls, w.Nombre)
	n := len(f.calls)
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	err := f.fail[w.Nombre]
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.onCall != nil {
		f.onCall(n)
	}

	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()
	return err
}

func row(name string, valid bool) types.ParsedRow {
	return types.ParsedRow{Nombre: name, ApellidoPaterno: "García", Puesto: "Operador", IsValid: valid}
}

func target() importer.Target {
	return importer.Target{OrganizationID: uuid.New()}
}

func TestCommitSequentialSkipsInvalidAndToleratesFailures(t *testing.T) {
	t.Parallel()

	creator := &fakeCreator{fail: map[string]error{"b": errors.New("boom")}}
	var completed int
	im := importer.New(creator, importer.Config{OnComplete: func(n int) { completed = n }}, zerolog.Nop())

	rows := []types.ParsedRow{row("a", true), row("x", false), row("b", true), row("c", true), row("y", false)}
	rows[2].Row = 4

	var progress []int
	result, err := im.Commit(context.Background(), target(), rows, func(p int) { progress = append(progress, p) })
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, creator.calls)
	assert.Equal(t, 1, creator.maxInFlight)
	assert.Equal(t, 2, result.Success)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 0, result.Skipped)
	assert.Equal(t, 3, result.Success+result.Failed)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, 4, result.Failures[0].Row)
	assert.Equal(t, "boom", result.Failures[0].Reason)

	assert.Equal(t, []int{33, 67, 100}, progress)
	assert.Equal(t, 2, completed)
}

func TestCommitProgressMonotonic(t *testing.T) {
	t.Parallel()

	for _, concurrency := range []int{1, 3, 8} {
		creator := &fakeCreator{delay: time.Millisecond}
		im := importer.New(creator, importer.Config{Concurrency: concurrency}, zerolog.Nop())

		rows := make([]types.ParsedRow, 0, 17)
		for i := 0; i < 17; i++ {
			rows = append(rows, row("w", true))
		}

		var mu sync.Mutex
		var progress []int
		result, err := im.Commit(context.Background(), target(), rows, func(p int) {
			mu.Lock()
			progress = append(progress, p)
			mu.Unlock()
		})
		require.NoError(t, err)

		assert.Equal(t, 17, result.Success)
		assert.LessOrEqual(t, creator.maxInFlight, concurrency)
		require.Len(t, progress, 17)
		for i := 1; i < len(progress); i++ {
			assert.GreaterOrEqual(t, progress[i], progress[i-1])
		}
		assert.Equal(t, 100, progress[len(progress)-1])
	}
}

func TestCommitNoValidRows(t *testing.T) {
	t.Parallel()

	creator := &fakeCreator{}
	im := importer.New(creator, importer.Config{}, zerolog.Nop())

	var progress []int
	result, err := im.Commit(context.Background(), target(), []types.ParsedRow{row("x", false)}, func(p int) {
		progress = append(progress, p)
	})
	require.NoError(t, err)

	assert.Empty(t, creator.calls)
	assert.Equal(t, types.ImportResult{}, result)
	assert.Equal(t, []int{100}, progress)
}

func TestCommitRequiresOrganization(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, importer.Target{}.Validate(), importer.ErrNoOrganization)
	assert.NoError(t, target().Validate())

	creator := &fakeCreator{}
	im := importer.New(creator, importer.Config{}, zerolog.Nop())
	_, err := im.Commit(context.Background(), importer.Target{}, []types.ParsedRow{row("a", true)}, nil)
	assert.ErrorIs(t, err, importer.ErrNoOrganization)
	assert.Empty(t, creator.calls)
}

func TestCommitCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	creator := &fakeCreator{onCall: func(n int) {
		if n == 2 {
			cancel()
		}
	}}
	called := false
	im := importer.New(creator, importer.Config{OnComplete: func(int) { called = true }}, zerolog.Nop())

	rows := []types.ParsedRow{row("a", true), row("b", true), row("c", true), row("d", true)}
	result, err := im.Commit(ctx, target(), rows, nil)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"a", "b"}, creator.calls)
	assert.Equal(t, 2, result.Success)
	assert.Equal(t, 2, result.Skipped)
	assert.False(t, called)
}

type blockingCreator struct{}

func (blockingCreator) CreateWorker(ctx context.Context, w *store.Worker) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestCommitCreateTimeout(t *testing.T) {
	t.Parallel()

	im := importer.New(blockingCreator{}, importer.Config{CreateTimeout: 20 * time.Millisecond}, zerolog.Nop())
	result, err := im.Commit(context.Background(), target(), []types.ParsedRow{row("a", true), row("b", true)}, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Success)
	assert.Equal(t, 2, result.Failed)
	require.Len(t, result.Failures, 2)
	assert.Contains(t, result.Failures[0].Reason, context.DeadlineExceeded.Error())
}

func TestCommitPassesTarget(t *testing.T) {
	t.Parallel()

	repo := store.NewMemoryRepository()
	im := importer.New(repo, importer.Config{}, zerolog.Nop())

	site := uuid.New()
	tgt := importer.Target{OrganizationID: uuid.New(), SiteID: &site}
	_, err := im.Commit(context.Background(), tgt, []types.ParsedRow{row("a", true)}, nil)
	require.NoError(t, err)

	workers := repo.Workers()
	require.Len(t, workers, 1)
	assert.Equal(t, tgt.OrganizationID, workers[0].OrganizationID)
	require.NotNil(t, workers[0].SiteID)
	assert.Equal(t, site, *workers[0].SiteID)
	assert.Equal(t, store.StatusActive, workers[0].Status)
}

func TestPercent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		done, total, expected int
	}{
		{0, 0, 100},
		{0, 3, 0},
		{1, 3, 33},
		{2, 3, 67},
		{3, 3, 100},
		{1, 8, 13},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, importer.Percent(tt.done, tt.total), "Percent(%d, %d)", tt.done, tt.total)
	}
}
