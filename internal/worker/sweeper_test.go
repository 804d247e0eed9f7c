package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lending-engine/internal/models"
	"github.com/lending-engine/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOverdueStore struct {
	loans      map[string]*models.Loan
	markErrs   map[string]error
	listErr    error
	lastBefore time.Time
	lastLimit  int
}

func newFakeOverdueStore() *fakeOverdueStore {
	return &fakeOverdueStore{
		loans:    make(map[string]*models.Loan),
		markErrs: make(map[string]error),
	}
}

func (f *fakeOverdueStore) ListOverdueActive(ctx context.Context, before time.Time, limit int) ([]*models.Loan, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.lastBefore = before
	f.lastLimit = limit

	var out []*models.Loan
	for _, loan := range f.loans {
		if loan.Status == types.StatusActive && loan.DueBy.Before(before) {
			out = append(out, loan)
		}
	}
	return out, nil
}

func (f *fakeOverdueStore) MarkDefaulted(ctx context.Context, id string) (bool, error) {
	if err := f.markErrs[id]; err != nil {
		return false, err
	}
	loan, ok := f.loans[id]
	if !ok || loan.Status != types.StatusActive {
		return false, nil
	}
	loan.Status = types.StatusDefaulted
	return true, nil
}

func (f *fakeOverdueStore) add(id string, status types.LoanStatus, dueBy time.Time) {
	f.loans[id] = &models.Loan{ID: id, Status: status, DueBy: dueBy}
}

func TestSweepOnceMarksOverdueLoans(t *testing.T) {
	store := newFakeOverdueStore()
	now := time.Now().UTC()

	store.add("loan_1", types.StatusActive, now.Add(-time.Hour))
	store.add("loan_2", types.StatusActive, now.Add(-time.Minute))
	store.add("loan_3", types.StatusActive, now.Add(time.Hour)) // not yet due
	store.add("loan_4", types.StatusRepaid, now.Add(-time.Hour))

	sweeper := NewSweeper(store, time.Minute, 50)

	count, err := sweeper.SweepOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, count)
	assert.Equal(t, types.StatusDefaulted, store.loans["loan_1"].Status)
	assert.Equal(t, types.StatusDefaulted, store.loans["loan_2"].Status)
	assert.Equal(t, types.StatusActive, store.loans["loan_3"].Status)
	assert.Equal(t, types.StatusRepaid, store.loans["loan_4"].Status)
	assert.Equal(t, 50, store.lastLimit)
}

func TestSweepOnceSkipsFailedRows(t *testing.T) {
	store := newFakeOverdueStore()
	now := time.Now().UTC()

	store.add("loan_1", types.StatusActive, now.Add(-time.Hour))
	store.add("loan_2", types.StatusActive, now.Add(-time.Hour))
	store.markErrs["loan_1"] = errors.New("pg down")

	sweeper := NewSweeper(store, time.Minute, 50)

	count, err := sweeper.SweepOnce(context.Background())
	require.NoError(t, err)

	// The failing row is skipped, not fatal for the batch.
	assert.Equal(t, 1, count)
	assert.Equal(t, types.StatusDefaulted, store.loans["loan_2"].Status)
}

func TestSweepOnceListError(t *testing.T) {
	store := newFakeOverdueStore()
	store.listErr = errors.New("pg down")

	sweeper := NewSweeper(store, time.Minute, 50)

	_, err := sweeper.SweepOnce(context.Background())
	assert.Error(t, err)
}

func TestRunStopsOnCancel(t *testing.T) {
	store := newFakeOverdueStore()
	sweeper := NewSweeper(store, 5*time.Millisecond, 10)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after context cancellation")
	}
}
