package commander

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clawops/fleetctl/domain/instance"
)

func TestClassify_ProvisionBeatsEverythingElse(t *testing.T) {
	i := Classify("provision a new standby and check the cost")
	assert.Equal(t, IntentProvisionRequest, i.Kind)
}

func TestClassify_TeardownBeatsCost(t *testing.T) {
	i := Classify("tear down this instance, what's the cost impact")
	assert.Equal(t, IntentTeardownRequest, i.Kind)
}

func TestClassify_ExtractsNumericCount(t *testing.T) {
	i := Classify("push config to 150 instances")
	require.NotNil(t, i.Count)
	assert.Equal(t, 150, *i.Count)
}

func TestClassify_ExtractsTierHint(t *testing.T) {
	i := Classify("provision a pro tier instance")
	require.NotNil(t, i.TierHint)
	assert.Equal(t, instance.TierPro, *i.TierHint)
}

func TestClassify_ExtractsNanoTierHint(t *testing.T) {
	i := Classify("provision 2 nano instances")
	require.NotNil(t, i.TierHint, "nano is a whole word in this text")
	assert.Equal(t, instance.TierNano, *i.TierHint)
}

func TestClassify_DoesNotMatchTierSubstringInsideProvision(t *testing.T) {
	i := Classify("provision 3 instances")
	require.Equal(t, IntentProvisionRequest, i.Kind)
	assert.Nil(t, i.TierHint, "\"pro\" inside \"provision\" must not be mistaken for the pro tier")
}

func TestClassify_DetectsIdleScope(t *testing.T) {
	i := Classify("teardown idle instances")
	assert.True(t, i.ScopeIdle)
}

func TestClassify_UnknownFallthrough(t *testing.T) {
	i := Classify("what's the weather like")
	assert.Equal(t, IntentUnknown, i.Kind)
}

func TestClassify_DetectsStatedProvider(t *testing.T) {
	i := Classify("provision on aws in nano tier")
	assert.True(t, i.HasProvider)
	assert.Equal(t, instance.ProviderAWS, i.Provider)
}

func TestRoute_ProvisionGoesToForge(t *testing.T) {
	assert.Equal(t, TargetForge, Route(Intent{Kind: IntentProvisionRequest}))
}

func TestRoute_IdleTeardownGoesToLedger(t *testing.T) {
	assert.Equal(t, TargetLedger, Route(Intent{Kind: IntentTeardownRequest, ScopeIdle: true}))
}

func TestRoute_NonIdleTeardownGoesToForge(t *testing.T) {
	assert.Equal(t, TargetForge, Route(Intent{Kind: IntentTeardownRequest, ScopeIdle: false}))
}

func TestRoute_IncidentGoesToTriage(t *testing.T) {
	assert.Equal(t, TargetTriage, Route(Intent{Kind: IntentIncidentQuery}))
}

func TestRoute_UnknownGoesDirect(t *testing.T) {
	assert.Equal(t, TargetDirect, Route(Intent{Kind: IntentUnknown}))
}

func TestRequiresRolling_TrueWhenOverThreshold(t *testing.T) {
	count := 150
	assert.True(t, RequiresRolling(Intent{Kind: IntentConfigPush, Count: &count}))
}

func TestRequiresRolling_FalseAtOrBelowThreshold(t *testing.T) {
	count := 100
	assert.False(t, RequiresRolling(Intent{Kind: IntentConfigPush, Count: &count}))
}
