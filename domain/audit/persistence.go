package audit

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FilePersistence stores the audit chain as a single JSON file, mapping
// record id to record, with stable key ordering. Readers tolerate
// missing or corrupt files by starting empty; writers never delete
// existing fields (handled by persistedRecord carrying every Record
// field verbatim).
type FilePersistence struct {
	mu   sync.Mutex
	path string
}

// NewFilePersistence targets a single JSON file at path.
func NewFilePersistence(path string) *FilePersistence {
	return &FilePersistence{path: path}
}

// persistedRecord mirrors Record with stable, explicit json tags so the
// on-disk key order and field set are stable across versions.
type persistedRecord struct {
	ID                   string         `json:"id"`
	CorrelationID        string         `json:"correlation_id,omitempty"`
	Timestamp            string         `json:"timestamp"`
	Actor                string         `json:"actor"`
	Action               string         `json:"action"`
	TargetType           string         `json:"target_type"`
	TargetID             string         `json:"target_id"`
	Parameters           map[string]any `json:"parameters,omitempty"`
	Result               string         `json:"result"`
	OperatorConfirmation bool           `json:"operator_confirmation"`
	PreviousHash         string         `json:"previous_hash"`
	RecordHash           string         `json:"record_hash"`
}

func toPersisted(r Record) persistedRecord {
	return persistedRecord{
		ID:                   r.ID,
		CorrelationID:        r.CorrelationID,
		Timestamp:            r.Timestamp.UTC().Format(timeLayout),
		Actor:                r.Actor,
		Action:               r.Action,
		TargetType:           r.TargetType,
		TargetID:             r.TargetID,
		Parameters:           r.Parameters,
		Result:               r.Result,
		OperatorConfirmation: r.OperatorConfirmation,
		PreviousHash:         r.PreviousHash,
		RecordHash:           r.RecordHash,
	}
}

func (p persistedRecord) toRecord() (Record, error) {
	ts, err := parseCanonicalTime(p.Timestamp)
	if err != nil {
		return Record{}, err
	}
	return Record{
		ID:                   p.ID,
		CorrelationID:        p.CorrelationID,
		Timestamp:            ts,
		Actor:                p.Actor,
		Action:               p.Action,
		TargetType:           p.TargetType,
		TargetID:             p.TargetID,
		Parameters:           p.Parameters,
		Result:               p.Result,
		OperatorConfirmation: p.OperatorConfirmation,
		PreviousHash:         p.PreviousHash,
		RecordHash:           p.RecordHash,
	}, nil
}

// Load reads the persisted record set, tolerating a missing file (starts
// empty) but surfacing a parse error for a present-but-corrupt file so
// the caller can log it.
func (fp *FilePersistence) Load(ctx context.Context) ([]Record, error) {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	data, err := os.ReadFile(fp.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var byID map[string]persistedRecord
	if err := json.Unmarshal(data, &byID); err != nil {
		return nil, err
	}

	out := make([]Record, 0, len(byID))
	for _, pr := range byID {
		r, err := pr.toRecord()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Save writes the full record set, keyed by id, with stable indentation.
func (fp *FilePersistence) Save(ctx context.Context, records []Record) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	byID := make(map[string]persistedRecord, len(records))
	for _, r := range records {
		byID[r.ID] = toPersisted(r)
	}

	data, err := json.MarshalIndent(byID, "", "  ")
	if err != nil {
		return err
	}

	if dir := filepath.Dir(fp.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	tmp := fp.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, fp.path)
}

func parseCanonicalTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}
