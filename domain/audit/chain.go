package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	cperrors "github.com/clawops/fleetctl/infrastructure/errors"
	"github.com/clawops/fleetctl/infrastructure/logging"
	"github.com/clawops/fleetctl/infrastructure/metrics"
)

// DefaultQueryLimit caps Query results when the caller omits a limit.
const DefaultQueryLimit = 100

// Persistence durably stores the full record set. Implementations
// tolerate a missing or corrupt file on read by starting empty.
type Persistence interface {
	Load(ctx context.Context) ([]Record, error)
	Save(ctx context.Context, records []Record) error
}

// Chain is the append-only, hash-linked audit log. Appends are serialized
// by a single writer mutex around (compute_hash, install_head, persist).
type Chain struct {
	mu      sync.Mutex
	records []Record
	head    string // RecordHash of the last appended record

	persist Persistence
	log     *logging.Logger
	metrics *metrics.Metrics
}

// New builds a Chain, loading any existing persisted records. A load
// failure is tolerated: the chain starts empty.
func New(ctx context.Context, persist Persistence, log *logging.Logger, m *metrics.Metrics) *Chain {
	c := &Chain{persist: persist, log: log, metrics: m}
	if persist != nil {
		if records, err := persist.Load(ctx); err == nil {
			sort.Slice(records, func(i, j int) bool { return records[i].Timestamp.Before(records[j].Timestamp) })
			c.records = records
			if len(records) > 0 {
				c.head = records[len(records)-1].RecordHash
			}
		} else if log != nil {
			log.WithContext(ctx).WithField("error", err).Warn("audit: failed to load persisted chain, starting empty")
		}
	}
	if m != nil {
		m.AuditChainLength.Set(float64(len(c.records)))
	}
	return c
}

// AppendInput carries the fields needed to append one record.
type AppendInput struct {
	Actor                string
	Action               string
	TargetType           string
	TargetID             string
	Parameters           map[string]any
	Result               string
	CorrelationID        string
	OperatorConfirmation bool
}

// Append computes the canonical serialization, hashes it, writes the
// record, advances the in-memory head, and durably persists the full
// record set. Returns the new record's hash.
func (c *Chain) Append(ctx context.Context, in AppendInput) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec := Record{
		ID:                   uuid.New().String(),
		CorrelationID:        in.CorrelationID,
		Timestamp:            time.Now().UTC(),
		Actor:                in.Actor,
		Action:               in.Action,
		TargetType:           in.TargetType,
		TargetID:             in.TargetID,
		Parameters:           in.Parameters,
		Result:               in.Result,
		OperatorConfirmation: in.OperatorConfirmation,
		PreviousHash:         c.head,
	}
	rec.RecordHash = hashRecord(rec)

	c.records = append(c.records, rec)
	c.head = rec.RecordHash

	if c.metrics != nil {
		c.metrics.AuditAppendsTotal.WithLabelValues(in.Action).Inc()
		c.metrics.AuditChainLength.Set(float64(len(c.records)))
	}

	if c.persist != nil {
		if err := c.persist.Save(ctx, append([]Record(nil), c.records...)); err != nil {
			// In-memory chain stays advanced; caller already treats the
			// action as logged. Nothing retries this save; the next
			// successful Append persists the full set, this record included.
			if c.log != nil {
				c.log.WithContext(ctx).WithField("error", err).Warn("audit: persistence failed, chain advanced in-memory only")
			}
			return rec.RecordHash, cperrors.Persistence("audit_append", err)
		}
	}

	return rec.RecordHash, nil
}

func hashRecord(r Record) string {
	sum := sha256.Sum256([]byte(Canonicalize(r)))
	return hex.EncodeToString(sum[:])
}

// QueryFilter selects a subset of records.
type QueryFilter struct {
	AccountID  string
	InstanceID string
	Agent      string
	Action     string
	Limit      int
}

// Query filters by case-sensitive substring match against TargetID and
// the textual form of Parameters, newest-timestamp-first with id
// tiebreak, capped at Limit (default DefaultQueryLimit).
func (c *Chain) Query(f QueryFilter) []Record {
	c.mu.Lock()
	snapshot := append([]Record(nil), c.records...)
	c.mu.Unlock()

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}

	matched := make([]Record, 0, len(snapshot))
	for _, r := range snapshot {
		if f.Agent != "" && r.Actor != f.Agent {
			continue
		}
		if f.Action != "" && r.Action != f.Action {
			continue
		}
		needle := f.InstanceID
		if needle == "" {
			needle = f.AccountID
		}
		if needle != "" && !strings.Contains(r.TargetID, needle) && !strings.Contains(paramsText(r.Parameters), needle) {
			continue
		}
		matched = append(matched, r)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].Timestamp.Equal(matched[j].Timestamp) {
			return matched[i].Timestamp.After(matched[j].Timestamp)
		}
		return matched[i].ID > matched[j].ID
	})

	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched
}

func paramsText(params map[string]any) string {
	return canonicalParams(params)
}

// VerifyChain replays records in ascending timestamp order, checking
// previous_hash linkage and the genesis record's empty previous_hash. A
// single mismatch fails the whole chain.
func (c *Chain) VerifyChain() bool {
	c.mu.Lock()
	snapshot := append([]Record(nil), c.records...)
	c.mu.Unlock()

	sort.Slice(snapshot, func(i, j int) bool { return snapshot[i].Timestamp.Before(snapshot[j].Timestamp) })

	prevHash := ""
	for _, r := range snapshot {
		if r.PreviousHash != prevHash {
			return false
		}
		if hashRecord(r) != r.RecordHash {
			return false
		}
		prevHash = r.RecordHash
	}
	return true
}

// Head returns the current chain head hash (empty if the chain is empty).
func (c *Chain) Head() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.head
}

// Len returns the number of records currently in the chain.
func (c *Chain) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}
