package pipeline

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/smartflow-dq/smartflow/utils"
)

type countingRetrainer struct{ calls atomic.Int32 }

func (c *countingRetrainer) Retrain(ctx context.Context) error {
	c.calls.Add(1)
	return nil
}

type countingRefresher struct{ calls atomic.Int32 }

func (c *countingRefresher) Refresh(ctx context.Context) error {
	c.calls.Add(1)
	return nil
}

func TestMaintenanceRunsJobs(t *testing.T) {
	retrainer := &countingRetrainer{}
	refresher := &countingRefresher{}
	m := NewMaintenance(retrainer, refresher, 20*time.Millisecond, 20*time.Millisecond, utils.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})
	go func() {
		m.Start(ctx)
		close(finished)
	}()

	require.Eventually(t, func() bool {
		return retrainer.calls.Load() >= 1 && refresher.calls.Load() >= 1
	}, 3*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("обслуживание не остановилось после отмены контекста")
	}
}
