package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/fumin/vqe"
)

func TestStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer s.Close()

	res := vqe.Result{
		Parameters:  []float64{0.1, -0.2, 0.3},
		Energy:      -1.137,
		Status:      vqe.StatusConverged,
		Iterations:  2,
		Evaluations: 9,
		Trace: vqe.Trace{Iterations: []vqe.Iteration{
			{Index: 1, Energy: -1.12, Delta: -0.0033, Duration: time.Millisecond},
			{Index: 2, Energy: -1.137, Delta: -0.017, Duration: 2 * time.Millisecond},
		}},
	}
	run := NewRun("h2", "uccsd", 4, 2, res)
	run.Created = time.Unix(1700000000, 0)
	id, err := s.Save(ctx, run)
	require.NoError(t, err)
	require.Equal(t, run.ID, id)

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, got.Created.Equal(run.Created))
	got.Created = run.Created
	require.Equal(t, run, got)

	second, err := s.Save(ctx, Run{Name: "ising", Ansatz: "hea", Status: vqe.StatusMaxIterations, Created: time.Unix(1700000001, 0)})
	require.NoError(t, err)
	require.NotEmpty(t, second)

	runs, err := s.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, id, runs[0].ID)
	require.Equal(t, second, runs[1].ID)
	require.Nil(t, runs[0].Parameters)

	runs, err = s.List(ctx, "ising")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, vqe.StatusMaxIterations, runs[0].Status)

	got, err = s.Get(ctx, second)
	require.NoError(t, err)
	require.Empty(t, got.Parameters)
	require.Empty(t, got.Trace)

	require.NoError(t, s.Delete(ctx, id))
	_, err = s.Get(ctx, id)
	require.True(t, errors.Is(err, ErrNotFound), "%v", err)
	require.True(t, errors.Is(s.Delete(ctx, id), ErrNotFound))

	// Duplicate ids are rejected.
	_, err = s.Save(ctx, Run{ID: second})
	require.Error(t, err)
}

func TestOpenExisting(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	s, err := Open(dbPath)
	require.NoError(t, err)
	id, err := s.Save(ctx, Run{Name: "h2"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(dbPath)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "h2", got.Name)
}
