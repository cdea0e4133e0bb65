// Package commander implements the Orchestrator ("Commander"):
// operator-intent classification, routing, and provider selection
// policy. It is the dispatcher that composes the other engines; it does
// not itself perform I/O.
package commander

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/clawops/fleetctl/domain/instance"
)

// IntentKind is the classified category of an operator's free-text
// request.
type IntentKind string

const (
	IntentProvisionRequest IntentKind = "provision_request"
	IntentTeardownRequest  IntentKind = "teardown_request"
	IntentCostQuery        IntentKind = "cost_query"
	IntentConfigPush       IntentKind = "config_push"
	IntentIncidentQuery    IntentKind = "incident_query"
	IntentHealthQuery      IntentKind = "health_query"
	IntentBulkOperation    IntentKind = "bulk_operation"
	IntentFleetStatus      IntentKind = "fleet_status"
	IntentUnknown          IntentKind = "unknown"
)

// Intent is the result of classifying one operator request.
type Intent struct {
	Kind         IntentKind
	RawText      string
	Count        *int
	TierHint     *instance.Tier
	ScopeIdle    bool
	Provider     instance.Provider
	HasProvider  bool
}

type keywordRule struct {
	kind     IntentKind
	keywords []string
}

// classificationOrder encodes the deterministic priority keyword rules
// are tried in: Provision > Teardown > Cost > ConfigPush > Incident >
// Health > Bulk > FleetStatus > Unknown.
var classificationOrder = []keywordRule{
	{IntentProvisionRequest, []string{"provision", "spin up", "create instance", "new standby", "new primary"}},
	{IntentTeardownRequest, []string{"teardown", "tear down", "decommission", "delete instance", "destroy"}},
	{IntentCostQuery, []string{"cost", "spend", "billing", "price"}},
	{IntentConfigPush, []string{"push config", "rollout", "deploy config", "config push"}},
	{IntentIncidentQuery, []string{"incident", "outage", "root cause", "postmortem"}},
	{IntentHealthQuery, []string{"health", "status check", "is it up", "alive"}},
	{IntentBulkOperation, []string{"all instances", "bulk", "every instance", "fleet-wide"}},
	{IntentFleetStatus, []string{"fleet status", "overview", "dashboard", "summary"}},
}

var numberRe = regexp.MustCompile(`\b(\d+)\b`)

type tierRule struct {
	tier instance.Tier
	re   *regexp.Regexp
}

func tierWordRule(tier instance.Tier, word string) tierRule {
	return tierRule{tier: tier, re: regexp.MustCompile(`\b` + regexp.QuoteMeta(word) + `\b`)}
}

// tierOrder is an ordered slice rather than a map: map iteration order
// is randomized, and tier-hint extraction must be deterministic. Tried
// in this order so "enterprise" wins over any accidental overlap before
// the narrower tiers are checked. Each rule matches on a word boundary
// so "pro" does not match inside "provision".
var tierOrder = []tierRule{
	tierWordRule(instance.TierEnterprise, "enterprise"),
	tierWordRule(instance.TierStandard, "standard"),
	tierWordRule(instance.TierNano, "nano"),
	tierWordRule(instance.TierPro, "pro"),
}

// Classify turns free text into an Intent, matching keywords case
// insensitively with deterministic priority order. It also extracts a
// leading numeric count and a tier hint, when present.
func Classify(text string) Intent {
	lower := strings.ToLower(text)
	intent := Intent{RawText: text, Kind: IntentUnknown}

	for _, rule := range classificationOrder {
		if containsAny(lower, rule.keywords) {
			intent.Kind = rule.kind
			break
		}
	}

	if m := numberRe.FindString(lower); m != "" {
		if n, err := strconv.Atoi(m); err == nil {
			intent.Count = &n
		}
	}

	for _, rule := range tierOrder {
		if rule.re.MatchString(lower) {
			t := rule.tier
			intent.TierHint = &t
			break
		}
	}

	intent.ScopeIdle = strings.Contains(lower, "idle")

	for _, p := range []instance.Provider{
		instance.ProviderAWS, instance.ProviderGCP, instance.ProviderAzure,
		instance.ProviderHetzner, instance.ProviderDigitalOcean,
	} {
		if strings.Contains(lower, string(p)) {
			intent.Provider = p
			intent.HasProvider = true
			break
		}
	}

	return intent
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
