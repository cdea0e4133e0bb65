// Package rollout implements the Rolling Pusher: batched config rollout
// over an ordered instance list, with per-batch validation and rollback
// on failure.
package rollout

import (
	"context"
	"math"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sync/errgroup"
)

// Pusher pushes a config payload to one instance and reads it back for
// validation. Implementations wrap the agent RPC client.
type Pusher interface {
	Push(ctx context.Context, instanceID string, payload any) error
	ReadBack(ctx context.Context, instanceID string) (any, error)
}

// RollbackFunc is invoked for a batch that failed validation, once per
// instance in that batch that failed.
type RollbackFunc func(ctx context.Context, instanceID string) error

// InstanceOutcome is one instance's push+validate result within a batch.
type InstanceOutcome struct {
	InstanceID    string
	PushErr       error
	ValidationOK  bool
	RolledBack    bool
	RollbackErr   error
}

// BatchResult records per-instance outcomes and completion time for one
// batch.
type BatchResult struct {
	Index      int
	Instances  []InstanceOutcome
	Started    time.Time
	Finished   time.Time
	Valid      bool // true iff every instance in the batch validated
}

// RollingPushResult aggregates all batches plus rollback count and
// overall success.
type RollingPushResult struct {
	ConfigName    string
	Batches       []BatchResult
	RollbackCount int
	Success       bool
}

// RollingPush configures one rollout run.
type RollingPush struct {
	ConfigName             string
	Payload                any
	Instances              []string
	BatchSize              int
	StopOnValidationFailure bool
	// MaxConcurrency bounds concurrent per-instance pushes within a batch.
	// Zero means fully parallel, bounded only by batch size.
	MaxConcurrency int
}

// Run executes rp against pusher, invoking rollback for any instance that
// fails validation. Batches run strictly sequentially; within a batch,
// pushes run concurrently up to MaxConcurrency.
func Run(ctx context.Context, rp RollingPush, pusher Pusher, rollback RollbackFunc) RollingPushResult {
	result := RollingPushResult{ConfigName: rp.ConfigName, Success: true}

	if len(rp.Instances) == 0 {
		return result
	}

	batchSize := rp.BatchSize
	if batchSize < 1 {
		batchSize = 1
	}
	concurrency := rp.MaxConcurrency
	if concurrency < 1 {
		concurrency = batchSize
	}

	numBatches := int(math.Ceil(float64(len(rp.Instances)) / float64(batchSize)))
	for i := 0; i < numBatches; i++ {
		start := i * batchSize
		end := start + batchSize
		if end > len(rp.Instances) {
			end = len(rp.Instances)
		}
		batchInstances := rp.Instances[start:end]

		batch := runBatch(ctx, i, batchInstances, rp.Payload, pusher, rollback, concurrency)
		result.Batches = append(result.Batches, batch)

		for _, o := range batch.Instances {
			if o.RolledBack {
				result.RollbackCount++
			}
		}
		if !batch.Valid {
			result.Success = false
			if rp.StopOnValidationFailure {
				break
			}
		}
	}

	return result
}

func runBatch(ctx context.Context, index int, instances []string, payload any, pusher Pusher, rollback RollbackFunc, concurrency int) BatchResult {
	batch := BatchResult{Index: index, Started: time.Now(), Valid: true}
	outcomes := make([]InstanceOutcome, len(instances))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for idx, id := range instances {
		idx, id := idx, id
		g.Go(func() error {
			outcomes[idx] = pushAndValidate(gctx, id, payload, pusher)
			return nil
		})
	}
	_ = g.Wait() // per-instance errors are carried in outcomes, not returned

	for idx, o := range outcomes {
		if !o.ValidationOK {
			batch.Valid = false
			if rollback != nil {
				err := rollback(ctx, o.InstanceID)
				outcomes[idx].RolledBack = true
				outcomes[idx].RollbackErr = err
			}
		}
	}

	batch.Instances = outcomes
	batch.Finished = time.Now()
	return batch
}

func pushAndValidate(ctx context.Context, instanceID string, payload any, pusher Pusher) InstanceOutcome {
	o := InstanceOutcome{InstanceID: instanceID}
	if err := pusher.Push(ctx, instanceID, payload); err != nil {
		o.PushErr = err
		return o
	}
	actual, err := pusher.ReadBack(ctx, instanceID)
	if err != nil {
		o.PushErr = err
		return o
	}
	o.ValidationOK = cmp.Equal(payload, actual)
	return o
}
