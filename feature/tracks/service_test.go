package tracks

import (
	"testing"
	"time"

	"track-resolver/core/reconcile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestService_List(t *testing.T) {
	svc := NewService(seededStore(t), &fakeRerunner{}, zap.NewNop())
	defer svc.Close()

	tests := []struct {
		name   string
		offset int
		limit  int
		want   []string
	}{
		{"all", 0, 0, []string{"a", "b", "c"}},
		{"limited", 0, 2, []string{"a", "b"}},
		{"tail", 2, 10, []string{"c"}},
		{"past end", 5, 1, nil},
		{"negative", -1, 1, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := svc.List(reconcile.StatePlaceholder, tt.offset, tt.limit)
			var ids []string
			for _, tr := range page.Items {
				ids = append(ids, tr.ItemID)
			}
			assert.Equal(t, tt.want, ids)
			assert.Equal(t, 3, page.Total)
			assert.NotNil(t, page.Items)
		})
	}
}

func TestService_StartRerunAfterClose(t *testing.T) {
	svc := NewService(seededStore(t), &fakeRerunner{}, zap.NewNop())
	svc.Close()

	_, err := svc.StartRerun(reconcile.StatePlaceholder)
	assert.Error(t, err)
}

func TestService_CloseCancelsRunning(t *testing.T) {
	rr := &fakeRerunner{release: make(chan struct{})}
	svc := NewService(seededStore(t), rr, zap.NewNop())

	run, err := svc.StartRerun(reconcile.StateFailed)
	require.NoError(t, err)
	svc.Close()

	got, ok := svc.Run(run.ID)
	require.True(t, ok)
	assert.Equal(t, RunFinished, got.Status)
	assert.NotNil(t, got.FinishedAt)
}

func TestRegistry_Evicts(t *testing.T) {
	r := newRegistry(2)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	_, ok := r.start("1", reconcile.StatePlaceholder, base)
	require.True(t, ok)
	r.finish("1", nil, nil, base)
	_, ok = r.start("2", reconcile.StateFailed, base.Add(time.Minute))
	require.True(t, ok)

	_, ok = r.start("3", reconcile.StatePlaceholder, base.Add(2*time.Minute))
	require.True(t, ok)

	_, ok = r.get("1")
	assert.False(t, ok, "oldest finished run is evicted")
	_, ok = r.get("2")
	assert.True(t, ok, "running runs are kept")

	runs := r.list()
	require.Len(t, runs, 2)
	assert.Equal(t, "3", runs[0].ID)
}
