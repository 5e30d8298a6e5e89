package etl_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/statsetl/internal/etl"
	"github.com/JonMunkholm/statsetl/internal/stats"
	"github.com/JonMunkholm/statsetl/internal/stats/statstest"
	"github.com/JonMunkholm/statsetl/internal/store/memory"
)

// gatedReader blocks every Read until release is closed.
type gatedReader struct {
	release chan struct{}
	inner   etl.SheetReader
}

func (r gatedReader) Read(path string) ([]stats.RawSheetRecord, error) {
	<-r.release
	return r.inner.Read(path)
}

type recordingRuns struct {
	mu      sync.Mutex
	results []etl.Result
}

func (o *recordingRuns) RunFinished(res etl.Result) {
	o.mu.Lock()
	o.results = append(o.results, res)
	o.mu.Unlock()
}

func newService(t *testing.T, reader etl.SheetReader, cfg etl.ServiceConfig, obs etl.RunObserver) (*etl.Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	orch := newOrchestrator(reader, newStoreLoader(store))
	svc := etl.NewService(orch, cfg, quietLogger(), obs)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = svc.WaitForRuns(ctx)
	})
	return svc, store
}

func TestService_StartRunAndResult(t *testing.T) {
	obs := &recordingRuns{}
	svc, store := newService(t, sheets(statstest.Sheet()), etl.ServiceConfig{}, obs)

	runID, err := svc.StartRun(context.Background(), etl.RunRequest{Path: "stats.xlsx"})
	require.NoError(t, err)
	assert.NotEmpty(t, runID)

	res, err := svc.Result(context.Background(), runID)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.UnitsProcessed)
	assert.Equal(t, 1, store.Counts().Matches)

	st, err := svc.Status(runID)
	require.NoError(t, err)
	assert.Equal(t, etl.PhaseComplete, st.Phase)
	assert.True(t, st.Phase.Done())
	assert.Equal(t, "stats.xlsx", st.FileName)
	assert.Equal(t, 1, st.UnitsProcessed)
	assert.NotNil(t, st.FinishedAt)

	obs.mu.Lock()
	assert.Len(t, obs.results, 1)
	obs.mu.Unlock()
}

func TestService_StatusWhileRunning(t *testing.T) {
	gate := gatedReader{release: make(chan struct{}), inner: sheets(statstest.Sheet())}
	svc, _ := newService(t, gate, etl.ServiceConfig{}, nil)

	runID, err := svc.StartRun(context.Background(), etl.RunRequest{Path: "stats.xlsx", FileName: "Drum 2025.xlsx"})
	require.NoError(t, err)

	st, err := svc.Status(runID)
	require.NoError(t, err)
	assert.False(t, st.Phase.Done())
	assert.Equal(t, "Drum 2025.xlsx", st.FileName)
	assert.Nil(t, st.FinishedAt)

	close(gate.release)
	res, err := svc.Result(context.Background(), runID)
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestService_TooManyRuns(t *testing.T) {
	gate := gatedReader{release: make(chan struct{}), inner: sheets(statstest.Sheet())}
	svc, _ := newService(t, gate, etl.ServiceConfig{MaxConcurrent: 1, MaxWait: 20 * time.Millisecond}, nil)

	first, err := svc.StartRun(context.Background(), etl.RunRequest{Path: "a.xlsx"})
	require.NoError(t, err)

	_, err = svc.StartRun(context.Background(), etl.RunRequest{Path: "b.xlsx"})
	assert.ErrorIs(t, err, etl.ErrTooManyRuns)
	assert.Equal(t, 1, svc.LimiterStatus().Active)

	close(gate.release)
	_, err = svc.Result(context.Background(), first)
	require.NoError(t, err)
}

func TestService_Cancel(t *testing.T) {
	gate := gatedReader{release: make(chan struct{}), inner: sheets(batchSheet(1), batchSheet(2))}
	svc, store := newService(t, gate, etl.ServiceConfig{}, nil)

	runID, err := svc.StartRun(context.Background(), etl.RunRequest{Path: "batch.xlsx"})
	require.NoError(t, err)
	require.NoError(t, svc.Cancel(runID))
	close(gate.release)

	res, err := svc.Result(context.Background(), runID)
	require.NoError(t, err)
	assert.True(t, res.Cancelled)
	assert.Zero(t, store.Counts().Matches)

	st, err := svc.Status(runID)
	require.NoError(t, err)
	assert.Equal(t, etl.PhaseCancelled, st.Phase)
	assert.NotEmpty(t, st.Error)
}

func TestService_UnknownRun(t *testing.T) {
	svc, _ := newService(t, staticReader{}, etl.ServiceConfig{}, nil)

	_, err := svc.Status("missing")
	assert.ErrorIs(t, err, etl.ErrRunNotFound)
	assert.ErrorIs(t, svc.Cancel("missing"), etl.ErrRunNotFound)
	_, err = svc.Result(context.Background(), "missing")
	assert.ErrorIs(t, err, etl.ErrRunNotFound)
}

func TestService_ResultHonoursContext(t *testing.T) {
	gate := gatedReader{release: make(chan struct{}), inner: sheets(statstest.Sheet())}
	svc, _ := newService(t, gate, etl.ServiceConfig{}, nil)
	defer close(gate.release)

	runID, err := svc.StartRun(context.Background(), etl.RunRequest{Path: "stats.xlsx"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = svc.Result(ctx, runID)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestService_RemovesUploadedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "upload.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("placeholder"), 0o600))
	svc, _ := newService(t, sheets(statstest.Sheet()), etl.ServiceConfig{}, nil)

	runID, err := svc.StartRun(context.Background(), etl.RunRequest{Path: path, RemoveFile: true})
	require.NoError(t, err)
	_, err = svc.Result(context.Background(), runID)
	require.NoError(t, err)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestService_ProcessAsync(t *testing.T) {
	svc, _ := newService(t, sheets(statstest.Sheet()), etl.ServiceConfig{}, nil)

	ch, err := svc.ProcessAsync(context.Background(), etl.RunRequest{Path: "stats.xlsx", DryRun: true})
	require.NoError(t, err)

	select {
	case res := <-ch:
		assert.True(t, res.Success)
		assert.True(t, res.DryRun)
	case <-time.After(5 * time.Second):
		t.Fatal("no result")
	}
}

func TestService_RetentionExpiresRuns(t *testing.T) {
	svc, _ := newService(t, sheets(statstest.Sheet()), etl.ServiceConfig{Retention: 10 * time.Millisecond}, nil)

	runID, err := svc.StartRun(context.Background(), etl.RunRequest{Path: "stats.xlsx"})
	require.NoError(t, err)
	_, err = svc.Result(context.Background(), runID)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, err := svc.Status(runID)
		return err != nil
	}, time.Second, 5*time.Millisecond)
}
