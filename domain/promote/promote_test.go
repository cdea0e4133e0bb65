package promote

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clawops/fleetctl/domain/audit"
	"github.com/clawops/fleetctl/domain/failover"
	"github.com/clawops/fleetctl/domain/instance"
	"github.com/clawops/fleetctl/infrastructure/logging"
)

type fakeAuditRecorder struct {
	mu      sync.Mutex
	actions []audit.ActionKind
}

func (f *fakeAuditRecorder) Append(ctx context.Context, in audit.AppendInput) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, audit.ActionKind(in.Action))
	return "", nil
}

type fakeHealth struct {
	state instance.LifecycleState
	err   error
}

func (f *fakeHealth) StandbyState(ctx context.Context, instanceID string) (instance.LifecycleState, error) {
	return f.state, f.err
}

type fakeRouting struct {
	err error
}

func (f *fakeRouting) UpdateRouting(ctx context.Context, accountID, newPrimaryID string) error {
	return f.err
}

type fakeScheduler struct {
	err error
}

func (f *fakeScheduler) ScheduleReplacement(ctx context.Context, accountID, formerPrimaryID string) error {
	return f.err
}

func setup(t *testing.T) (*instance.Registry, *failover.Registry) {
	t.Helper()
	pairs := instance.NewRegistry()
	pairs.Put(instance.Pair{AccountID: "acct-1", PrimaryID: "i-primary", StandbyID: "i-standby"})
	fsms := failover.NewRegistry()
	m := fsms.Ensure("i-primary", instance.RolePrimary)
	for i := 0; i < failover.MaxHealAttempts+1; i++ {
		m.Tick(30, true, 40)
	}
	require.Equal(t, failover.KindFailingOver, m.State().Kind)
	return pairs, fsms
}

func newTestLogger() *logging.Logger {
	return logging.New("test", "error", "json")
}

func TestPromote_HappyPath(t *testing.T) {
	pairs, fsms := setup(t)
	rec := &fakeAuditRecorder{}
	o := New(pairs, fsms, &fakeHealth{state: instance.StateActive}, &fakeRouting{}, &fakeScheduler{}, rec, newTestLogger())

	summary, err := o.Promote(context.Background(), "acct-1", "i-primary")
	require.NoError(t, err)
	assert.True(t, summary.Success)
	assert.Equal(t, "i-standby", summary.NewPrimary)
	assert.Len(t, summary.Steps, 4)

	p, ok := pairs.Get("acct-1")
	require.True(t, ok)
	assert.Equal(t, "i-standby", p.PrimaryID)

	assert.Equal(t, []audit.ActionKind{audit.ActionPromoteStandby, audit.ActionScheduleReprovision}, rec.actions)
}

func TestPromote_AbortsWhenStandbyNotActive(t *testing.T) {
	pairs, fsms := setup(t)
	rec := &fakeAuditRecorder{}
	o := New(pairs, fsms, &fakeHealth{state: instance.StateDegraded}, &fakeRouting{}, &fakeScheduler{}, rec, newTestLogger())

	summary, err := o.Promote(context.Background(), "acct-1", "i-primary")
	require.Error(t, err)
	assert.False(t, summary.Success)

	p, _ := pairs.Get("acct-1")
	assert.Equal(t, "i-primary", p.PrimaryID, "no mutation on abort")
	assert.Empty(t, rec.actions, "no audit record on abort before any mutation")
}

func TestPromote_UnwindsOnRoutingFailure(t *testing.T) {
	pairs, fsms := setup(t)
	o := New(pairs, fsms, &fakeHealth{state: instance.StateActive}, &fakeRouting{err: errors.New("dns provider down")}, &fakeScheduler{}, &fakeAuditRecorder{}, newTestLogger())

	summary, err := o.Promote(context.Background(), "acct-1", "i-primary")
	require.Error(t, err)
	assert.False(t, summary.Success)

	p, _ := pairs.Get("acct-1")
	assert.Equal(t, "i-primary", p.PrimaryID, "binding unwound after routing failure")
}

func TestPromote_UnknownAccount(t *testing.T) {
	pairs, fsms := setup(t)
	o := New(pairs, fsms, &fakeHealth{state: instance.StateActive}, &fakeRouting{}, &fakeScheduler{}, &fakeAuditRecorder{}, newTestLogger())

	_, err := o.Promote(context.Background(), "acct-missing", "i-primary")
	assert.Error(t, err)
}
