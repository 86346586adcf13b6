package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mrlokans/matjip/internal/config"
	"github.com/mrlokans/matjip/internal/services"
)

type fakeSyncer struct {
	ifNeeded atomic.Int32
	all      atomic.Int32
	err      error
	block    chan struct{}
}

func (f *fakeSyncer) SyncIfNeeded(context.Context) (services.SyncOutcome, error) {
	f.ifNeeded.Add(1)
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return services.SyncOutcome{}, f.err
	}
	return services.SyncOutcome{Synced: true, Result: &services.SyncResult{Total: 3, New: 1}}, nil
}

func (f *fakeSyncer) SyncAll(context.Context) (services.SyncResult, error) {
	f.all.Add(1)
	return services.SyncResult{Total: 3}, f.err
}

func enabledConfig() config.RestaurantSync {
	return config.RestaurantSync{Enabled: true, Schedule: "0 4 * * *", OnStartup: true}
}

func TestRestaurantSyncScheduler_StartStop(t *testing.T) {
	s := NewRestaurantSyncScheduler(&fakeSyncer{}, enabledConfig(), zap.NewNop())

	assert.Nil(t, s.GetNextRunTime())
	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())

	next := s.GetNextRunTime()
	require.NotNil(t, next)
	assert.Equal(t, 4, next.Hour())

	s.Stop()
	assert.False(t, s.IsRunning())
	assert.Nil(t, s.GetNextRunTime())
}

func TestRestaurantSyncScheduler_StopsWithContext(t *testing.T) {
	s := NewRestaurantSyncScheduler(&fakeSyncer{}, enabledConfig(), zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))

	cancel()
	assert.Eventually(t, func() bool { return !s.IsRunning() }, time.Second, 10*time.Millisecond)
}

func TestRestaurantSyncScheduler_Disabled(t *testing.T) {
	cfg := enabledConfig()
	cfg.Enabled = false
	s := NewRestaurantSyncScheduler(&fakeSyncer{}, cfg, zap.NewNop())

	require.NoError(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
}

func TestRestaurantSyncScheduler_InvalidSchedule(t *testing.T) {
	cfg := enabledConfig()
	cfg.Schedule = "every day"
	s := NewRestaurantSyncScheduler(&fakeSyncer{}, cfg, zap.NewNop())

	assert.Error(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
}

func TestRestaurantSyncScheduler_StartupSyncRunsOnce(t *testing.T) {
	syncer := &fakeSyncer{}
	s := NewRestaurantSyncScheduler(syncer, enabledConfig(), zap.NewNop())

	var wg sync.WaitGroup
	var ran atomic.Int32
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.RunStartupSync(context.Background()) {
				ran.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), ran.Load())
	assert.Equal(t, int32(1), syncer.ifNeeded.Load())
}

func TestRestaurantSyncScheduler_SkipsOverlappingRuns(t *testing.T) {
	syncer := &fakeSyncer{block: make(chan struct{})}
	s := NewRestaurantSyncScheduler(syncer, enabledConfig(), zap.NewNop())

	s.RunNow(false)
	assert.Eventually(t, s.IsSyncing, time.Second, 5*time.Millisecond)

	// a second run while the first is blocked is dropped
	s.runSync(context.Background(), false)
	close(syncer.block)

	assert.Eventually(t, func() bool { return !s.IsSyncing() }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), syncer.ifNeeded.Load())
}

func TestRestaurantSyncScheduler_ForcedRunAndErrors(t *testing.T) {
	syncer := &fakeSyncer{err: errors.New("boom")}
	s := NewRestaurantSyncScheduler(syncer, enabledConfig(), zap.NewNop())

	s.runSync(context.Background(), true)
	s.runSync(context.Background(), false)

	assert.Equal(t, int32(1), syncer.all.Load())
	assert.Equal(t, int32(1), syncer.ifNeeded.Load())
	assert.False(t, s.IsSyncing())
}
