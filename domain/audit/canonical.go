package audit

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Canonicalize produces the stable byte serialization hashed into
// RecordHash (the persisted file stores records as JSON instead): fields in a fixed order,
// numbers in decimal without trailing zeros, strings UTF-8 NFC,
// timestamps RFC 3339 UTC.
func Canonicalize(r Record) string {
	var b strings.Builder
	b.WriteString("id=")
	b.WriteString(nfc(r.ID))
	b.WriteString("\ntimestamp=")
	b.WriteString(r.Timestamp.UTC().Format(timeLayout))
	b.WriteString("\nactor=")
	b.WriteString(nfc(r.Actor))
	b.WriteString("\naction=")
	b.WriteString(nfc(r.Action))
	b.WriteString("\ntarget_type=")
	b.WriteString(nfc(r.TargetType))
	b.WriteString("\ntarget_id=")
	b.WriteString(nfc(r.TargetID))
	b.WriteString("\nparameters=")
	b.WriteString(canonicalParams(r.Parameters))
	b.WriteString("\nresult=")
	b.WriteString(nfc(r.Result))
	b.WriteString("\nprevious_hash=")
	b.WriteString(r.PreviousHash)
	return b.String()
}

const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func nfc(s string) string {
	return norm.NFC.String(s)
}

// canonicalParams renders an opaque parameter map deterministically: keys
// sorted, numbers decimal without trailing zeros, nested maps recursed.
func canonicalParams(params map[string]any) string {
	if len(params) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("{")
	for i, k := range keys {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(nfc(k))
		b.WriteString(":")
		b.WriteString(canonicalValue(params[k]))
	}
	b.WriteString("}")
	return b.String()
}

func canonicalValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return nfc(val)
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case map[string]any:
		return canonicalParams(val)
	case []any:
		parts := make([]string, len(val))
		for i, e := range val {
			parts[i] = canonicalValue(e)
		}
		return "[" + strings.Join(parts, ",") + "]"
	case []string:
		parts := make([]string, len(val))
		for i, e := range val {
			parts[i] = nfc(e)
		}
		return "[" + strings.Join(parts, ",") + "]"
	default:
		return fmt.Sprintf("%v", val)
	}
}
