package rollout

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePusher struct {
	mu         sync.Mutex
	stored     map[string]any
	pushErr    map[string]error
	corrupt    map[string]bool
}

func newFakePusher() *fakePusher {
	return &fakePusher{stored: make(map[string]any), pushErr: make(map[string]error), corrupt: make(map[string]bool)}
}

func (f *fakePusher) Push(ctx context.Context, instanceID string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.pushErr[instanceID]; ok {
		return err
	}
	f.stored[instanceID] = payload
	return nil
}

func (f *fakePusher) ReadBack(ctx context.Context, instanceID string) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.corrupt[instanceID] {
		return "corrupted", nil
	}
	return f.stored[instanceID], nil
}

func TestRun_EmptyInstancesYieldsZeroBatchesAndSuccess(t *testing.T) {
	result := Run(context.Background(), RollingPush{ConfigName: "c1"}, newFakePusher(), nil)
	assert.Empty(t, result.Batches)
	assert.True(t, result.Success)
}

func TestRun_AllSucceed(t *testing.T) {
	pusher := newFakePusher()
	rp := RollingPush{ConfigName: "c1", Payload: map[string]string{"k": "v"}, Instances: []string{"i-1", "i-2", "i-3"}, BatchSize: 2}
	result := Run(context.Background(), rp, pusher, nil)
	require.Len(t, result.Batches, 2)
	assert.True(t, result.Success)
	assert.Equal(t, 0, result.RollbackCount)
}

func TestRun_ValidationFailureTriggersRollback(t *testing.T) {
	pusher := newFakePusher()
	pusher.corrupt["i-2"] = true
	var rolledBack []string
	rollback := func(ctx context.Context, instanceID string) error {
		rolledBack = append(rolledBack, instanceID)
		return nil
	}
	rp := RollingPush{ConfigName: "c1", Payload: "v1", Instances: []string{"i-1", "i-2"}, BatchSize: 2}
	result := Run(context.Background(), rp, pusher, rollback)
	assert.False(t, result.Success)
	assert.Equal(t, 1, result.RollbackCount)
	assert.Contains(t, rolledBack, "i-2")
}

func TestRun_StopsOnValidationFailureWhenConfigured(t *testing.T) {
	pusher := newFakePusher()
	pusher.corrupt["i-1"] = true
	rp := RollingPush{
		ConfigName: "c1", Payload: "v1", Instances: []string{"i-1", "i-2", "i-3", "i-4"},
		BatchSize: 1, StopOnValidationFailure: true,
	}
	result := Run(context.Background(), rp, pusher, func(ctx context.Context, instanceID string) error { return nil })
	assert.Len(t, result.Batches, 1)
	assert.False(t, result.Success)
}

func TestRun_ContinuesWithoutStopOnValidationFailure(t *testing.T) {
	pusher := newFakePusher()
	pusher.corrupt["i-1"] = true
	rp := RollingPush{
		ConfigName: "c1", Payload: "v1", Instances: []string{"i-1", "i-2", "i-3"},
		BatchSize: 1, StopOnValidationFailure: false,
	}
	result := Run(context.Background(), rp, pusher, func(ctx context.Context, instanceID string) error { return nil })
	assert.Len(t, result.Batches, 3)
	assert.False(t, result.Success)
}

func TestRun_BatchSizeClampedToAtLeastOne(t *testing.T) {
	pusher := newFakePusher()
	rp := RollingPush{ConfigName: "c1", Payload: "v1", Instances: []string{"i-1", "i-2"}, BatchSize: 0}
	result := Run(context.Background(), rp, pusher, nil)
	assert.Len(t, result.Batches, 2)
}

func TestRun_PushErrorFailsValidation(t *testing.T) {
	pusher := newFakePusher()
	pusher.pushErr["i-1"] = errors.New("agent unreachable")
	rp := RollingPush{ConfigName: "c1", Payload: "v1", Instances: []string{"i-1"}, BatchSize: 1}
	result := Run(context.Background(), rp, pusher, func(ctx context.Context, instanceID string) error { return nil })
	assert.False(t, result.Success)
	require.Len(t, result.Batches[0].Instances, 1)
	assert.Error(t, result.Batches[0].Instances[0].PushErr)
}
