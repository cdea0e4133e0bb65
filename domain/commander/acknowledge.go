package commander

import "fmt"

// Acknowledge renders a short natural-language acknowledgement for a
// dispatched intent. This is a pure formatting helper, not a decision
// surface: it never changes what was dispatched.
func Acknowledge(intent Intent, target Target) string {
	switch intent.Kind {
	case IntentProvisionRequest:
		if intent.TierHint != nil {
			return fmt.Sprintf("Routing provisioning request (%s tier) to %s.", *intent.TierHint, target)
		}
		return fmt.Sprintf("Routing provisioning request to %s.", target)
	case IntentTeardownRequest:
		return fmt.Sprintf("Routing teardown request to %s.", target)
	case IntentCostQuery:
		return "Pulling cost data from the ledger."
	case IntentConfigPush:
		if intent.Count != nil && *intent.Count > 100 {
			return fmt.Sprintf("Config push affects %d instances; enforcing a rolling rollout.", *intent.Count)
		}
		return "Pushing config directly."
	case IntentIncidentQuery:
		return "Pulling incident history from triage."
	case IntentHealthQuery:
		return "Checking fleet health via guardian."
	case IntentBulkOperation:
		return "Acknowledged: this is a fleet-wide bulk operation."
	case IntentFleetStatus:
		return "Compiling fleet status overview."
	default:
		return "Sorry, I couldn't classify that request."
	}
}
