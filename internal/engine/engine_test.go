package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Qubdi/Tobias/internal/logger"
	"github.com/Qubdi/Tobias/internal/types"
)

type fakeResolver struct {
	resolved   map[int64]*types.VariableVersion
	unresolved []int64
	err        error
	gotIDs     []int64
}

func (f *fakeResolver) Resolve(ctx context.Context, tx *gorm.DB, variableIDs []int64) (map[int64]*types.VariableVersion, []int64, error) {
	f.gotIDs = variableIDs
	return f.resolved, f.unresolved, f.err
}

type fakeExecutor struct {
	outcome BatchOutcome
	gotUnit *BatchUnit
	calls   int
}

func (f *fakeExecutor) Execute(ctx context.Context, unit *BatchUnit) BatchOutcome {
	f.calls++
	f.gotUnit = unit
	return f.outcome
}

type fakeWriter struct {
	err           error
	gotOutcome    BatchOutcome
	gotResolved   map[int64]*types.VariableVersion
	gotUnresolved []int64
	gotExecutedBy string
}

func (f *fakeWriter) Commit(ctx context.Context, applicationID string, batchID uuid.UUID, executedBy string, outcome BatchOutcome, resolved map[int64]*types.VariableVersion, unresolved []int64) (*Summary, error) {
	f.gotOutcome = outcome
	f.gotResolved = resolved
	f.gotUnresolved = unresolved
	f.gotExecutedBy = executedBy
	if f.err != nil {
		return nil, f.err
	}
	summary := &Summary{
		ApplicationID: applicationID,
		BatchID:       batchID,
		Succeeded:     []int64{},
		Failed:        outcome.Failed,
		Unresolved:    unresolved,
	}
	for _, s := range outcome.Succeeded {
		summary.Succeeded = append(summary.Succeeded, s.VariableID)
	}
	return summary, nil
}

func testEngine(t *testing.T, resolver *fakeResolver, executor *fakeExecutor, writer *fakeWriter) *Engine {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return &Engine{
		log:      log,
		resolver: resolver,
		composer: NewComposer(),
		executor: executor,
		writer:   writer,
	}
}

func TestCalculateRejectsEmptyRequest(t *testing.T) {
	eng := testEngine(t, &fakeResolver{}, &fakeExecutor{}, &fakeWriter{})

	if _, err := eng.Calculate(context.Background(), "A1", nil, "system"); !errors.Is(err, ErrNoVariableIDs) {
		t.Fatalf("empty ids: want ErrNoVariableIDs got %v", err)
	}
	if _, err := eng.Calculate(context.Background(), "", []int64{1}, "system"); !errors.Is(err, ErrMissingApplication) {
		t.Fatalf("empty application: want ErrMissingApplication got %v", err)
	}
}

func TestCalculateDedupesAndSortsIDs(t *testing.T) {
	resolver := &fakeResolver{resolved: map[int64]*types.VariableVersion{}, unresolved: []int64{1, 2, 3}}
	eng := testEngine(t, resolver, &fakeExecutor{}, &fakeWriter{})

	if _, err := eng.Calculate(context.Background(), "A1", []int64{3, 1, 3, 2, 1}, "system"); err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	want := []int64{1, 2, 3}
	if len(resolver.gotIDs) != len(want) {
		t.Fatalf("resolver ids: want=%v got=%v", want, resolver.gotIDs)
	}
	for i := range want {
		if resolver.gotIDs[i] != want[i] {
			t.Fatalf("resolver ids: want=%v got=%v", want, resolver.gotIDs)
		}
	}
}

func TestCalculateAccountsForEveryID(t *testing.T) {
	resolver := &fakeResolver{
		resolved: map[int64]*types.VariableVersion{
			1: {ID: 11, VariableID: 1, VersionNumber: 1, SQLScript: "SELECT 1"},
			2: {ID: 22, VariableID: 2, VersionNumber: 3, SQLScript: "SELECT 2"},
		},
		unresolved: []int64{9999},
	}
	executor := &fakeExecutor{outcome: BatchOutcome{
		Succeeded: []SucceededVariable{{VariableID: 1, Value: "1"}},
		Failed:    []FragmentFailure{{VariableID: 2, Reason: "execute: boom"}},
	}}
	writer := &fakeWriter{}
	eng := testEngine(t, resolver, executor, writer)

	summary, err := eng.Calculate(context.Background(), "A1", []int64{1, 2, 9999}, "analyst")
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	seen := map[int64]int{}
	for _, id := range summary.Succeeded {
		seen[id]++
	}
	for _, f := range summary.Failed {
		seen[f.VariableID]++
	}
	for _, id := range summary.Unresolved {
		seen[id]++
	}
	for _, id := range []int64{1, 2, 9999} {
		if seen[id] != 1 {
			t.Fatalf("id %d accounted for %d times, want exactly once (summary %+v)", id, seen[id], summary)
		}
	}
	if writer.gotExecutedBy != "analyst" {
		t.Fatalf("executed by: want=%q got=%q", "analyst", writer.gotExecutedBy)
	}
}

func TestCalculateMergesComposeFailures(t *testing.T) {
	resolver := &fakeResolver{
		resolved: map[int64]*types.VariableVersion{
			1: {ID: 11, VariableID: 1, VersionNumber: 1, SQLScript: "   "},
			2: {ID: 22, VariableID: 2, VersionNumber: 1, SQLScript: "SELECT 2"},
		},
	}
	executor := &fakeExecutor{outcome: BatchOutcome{
		Succeeded: []SucceededVariable{{VariableID: 2, Value: "2"}},
	}}
	writer := &fakeWriter{}
	eng := testEngine(t, resolver, executor, writer)

	summary, err := eng.Calculate(context.Background(), "A1", []int64{1, 2}, "system")
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if len(summary.Failed) != 1 || summary.Failed[0].VariableID != 1 {
		t.Fatalf("compose failure missing from summary: %+v", summary)
	}
	// The malformed fragment never reaches the executor.
	if executor.gotUnit == nil || len(executor.gotUnit.Fragments) != 1 || executor.gotUnit.Fragments[0].VariableID != 2 {
		t.Fatalf("executor unit: want only variable 2, got %+v", executor.gotUnit)
	}
}

func TestCalculateSkipsExecutorWhenNothingComposes(t *testing.T) {
	resolver := &fakeResolver{resolved: map[int64]*types.VariableVersion{}, unresolved: []int64{5}}
	executor := &fakeExecutor{}
	eng := testEngine(t, resolver, executor, &fakeWriter{})

	summary, err := eng.Calculate(context.Background(), "A1", []int64{5}, "system")
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if executor.calls != 0 {
		t.Fatalf("executor calls: want=0 got=%d", executor.calls)
	}
	if len(summary.Unresolved) != 1 || summary.Unresolved[0] != 5 {
		t.Fatalf("unresolved: want=[5] got=%v", summary.Unresolved)
	}
}

func TestCalculatePropagatesPersistenceError(t *testing.T) {
	resolver := &fakeResolver{
		resolved: map[int64]*types.VariableVersion{1: {ID: 11, VariableID: 1, SQLScript: "SELECT 1"}},
	}
	executor := &fakeExecutor{outcome: BatchOutcome{Succeeded: []SucceededVariable{{VariableID: 1, Value: "1"}}}}
	writer := &fakeWriter{err: &PersistenceError{Op: "result upsert", Err: errors.New("store down")}}
	eng := testEngine(t, resolver, executor, writer)

	_, err := eng.Calculate(context.Background(), "A1", []int64{1}, "system")
	if err == nil {
		t.Fatalf("want persistence error, got nil")
	}
	if !IsPersistenceError(err) {
		t.Fatalf("want PersistenceError, got %T: %v", err, err)
	}
}

func TestCalculatePropagatesResolveError(t *testing.T) {
	resolver := &fakeResolver{err: errors.New("store unreachable")}
	eng := testEngine(t, resolver, &fakeExecutor{}, &fakeWriter{})

	_, err := eng.Calculate(context.Background(), "A1", []int64{1}, "system")
	if err == nil || !errors.Is(err, resolver.err) {
		t.Fatalf("want wrapped resolve error, got %v", err)
	}
}
