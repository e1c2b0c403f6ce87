package repos

import (
	"context"
	"testing"
	"time"

	"github.com/Qubdi/Tobias/internal/repos/testutil"
	"github.com/Qubdi/Tobias/internal/types"
)

func seedVariable(t *testing.T, variableRepo VariableRepo, name string) *types.Variable {
	t.Helper()
	variable := &types.Variable{
		Name:            name,
		CalculationType: types.CalculationTypeLive,
		IsActive:        true,
		CreatedBy:       "test",
	}
	if _, err := variableRepo.Create(context.Background(), nil, []*types.Variable{variable}); err != nil {
		t.Fatalf("create variable: %v", err)
	}
	return variable
}

func TestNameExistsIgnoresActiveFlag(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	variableRepo := NewVariableRepo(db, log)
	ctx := context.Background()

	variable := seedVariable(t, variableRepo, "age")
	if err := variableRepo.SetActive(ctx, nil, variable.ID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	exists, err := variableRepo.NameExists(ctx, nil, "age")
	if err != nil {
		t.Fatalf("NameExists: %v", err)
	}
	if !exists {
		t.Fatalf("deactivated variable should keep its name reserved")
	}
}

func TestListActiveExcludesDeactivated(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	variableRepo := NewVariableRepo(db, log)
	ctx := context.Background()

	keep := seedVariable(t, variableRepo, "age")
	drop := seedVariable(t, variableRepo, "income")
	if err := variableRepo.SetActive(ctx, nil, drop.ID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	active, err := variableRepo.ListActive(ctx, nil)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(active) != 1 || active[0].ID != keep.ID {
		t.Fatalf("active list: want only %d, got %+v", keep.ID, active)
	}

	// History stays addressable after the soft delete.
	variables, err := variableRepo.GetByIDs(ctx, nil, []int64{drop.ID})
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if len(variables) != 1 || variables[0].IsActive {
		t.Fatalf("deactivated variable should still load, got %+v", variables)
	}
}

func TestGetLatestByVariableIDsPicksHighestActiveVersion(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	variableRepo := NewVariableRepo(db, log)
	versionRepo := NewVariableVersionRepo(db, log)
	ctx := context.Background()

	variable := seedVariable(t, variableRepo, "age")
	versions := []*types.VariableVersion{
		{VariableID: variable.ID, VersionNumber: 1, SQLScript: "SELECT 1", IsActive: true, EditedAt: time.Now()},
		{VariableID: variable.ID, VersionNumber: 2, SQLScript: "SELECT 2", IsActive: true, EditedAt: time.Now()},
		{VariableID: variable.ID, VersionNumber: 3, SQLScript: "SELECT 3", IsActive: false, EditedAt: time.Now()},
	}
	if _, err := versionRepo.Create(ctx, nil, versions); err != nil {
		t.Fatalf("create versions: %v", err)
	}

	latest, err := versionRepo.GetLatestByVariableIDs(ctx, nil, []int64{variable.ID, 9999})
	if err != nil {
		t.Fatalf("GetLatestByVariableIDs: %v", err)
	}
	if len(latest) != 1 {
		t.Fatalf("latest versions: want=1 got=%d", len(latest))
	}
	if latest[0].VersionNumber != 2 {
		t.Fatalf("latest version number: want=2 (highest active) got=%d", latest[0].VersionNumber)
	}
}

func TestMaxVersionNumber(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	variableRepo := NewVariableRepo(db, log)
	versionRepo := NewVariableVersionRepo(db, log)
	ctx := context.Background()

	variable := seedVariable(t, variableRepo, "age")

	max, err := versionRepo.MaxVersionNumber(ctx, nil, variable.ID)
	if err != nil {
		t.Fatalf("MaxVersionNumber: %v", err)
	}
	if max != 0 {
		t.Fatalf("max with no versions: want=0 got=%d", max)
	}

	if _, err := versionRepo.Create(ctx, nil, []*types.VariableVersion{
		{VariableID: variable.ID, VersionNumber: 1, SQLScript: "SELECT 1", IsActive: true, EditedAt: time.Now()},
		{VariableID: variable.ID, VersionNumber: 2, SQLScript: "SELECT 2", IsActive: true, EditedAt: time.Now()},
	}); err != nil {
		t.Fatalf("create versions: %v", err)
	}

	max, err = versionRepo.MaxVersionNumber(ctx, nil, variable.ID)
	if err != nil {
		t.Fatalf("MaxVersionNumber: %v", err)
	}
	if max != 2 {
		t.Fatalf("max: want=2 got=%d", max)
	}
}

func TestResultUpsertKeepsOneRowPerPair(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	variableRepo := NewVariableRepo(db, log)
	resultRepo := NewVariableResultRepo(db, log)
	ctx := context.Background()

	variable := seedVariable(t, variableRepo, "age")

	first, err := resultRepo.Upsert(ctx, nil, &types.VariableResult{
		ApplicationID: "A1",
		VariableID:    variable.ID,
		Value:         "30",
		CalculatedBy:  "system",
		CalculatedAt:  time.Now(),
	})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	second, err := resultRepo.Upsert(ctx, nil, &types.VariableResult{
		ApplicationID: "A1",
		VariableID:    variable.ID,
		Value:         "31",
		CalculatedBy:  "system",
		CalculatedAt:  time.Now(),
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	if first.ID != second.ID {
		t.Fatalf("upsert should keep the original row: first id=%d second id=%d", first.ID, second.ID)
	}
	if second.Value != "31" {
		t.Fatalf("upsert value: want=%q got=%q", "31", second.Value)
	}

	var count int64
	if err := db.Model(&types.VariableResult{}).
		Where("application_id = ? AND variable_id = ?", "A1", variable.ID).
		Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("result rows: want=1 got=%d", count)
	}
}

func TestExecutionsAreAppendOnlyPerAttempt(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	variableRepo := NewVariableRepo(db, log)
	executionRepo := NewVariableExecutionRepo(db, log)
	ctx := context.Background()

	variable := seedVariable(t, variableRepo, "age")
	variableID := variable.ID

	for i := 0; i < 3; i++ {
		if _, err := executionRepo.Create(ctx, nil, []*types.VariableExecution{{
			ApplicationID: "A1",
			VariableID:    &variableID,
			ExecutedBy:    "system",
			Status:        types.ExecutionStatusSuccess,
			ExecutedAt:    time.Now(),
		}}); err != nil {
			t.Fatalf("create execution: %v", err)
		}
	}

	executions, err := executionRepo.GetByApplicationID(ctx, nil, "A1")
	if err != nil {
		t.Fatalf("GetByApplicationID: %v", err)
	}
	if len(executions) != 3 {
		t.Fatalf("executions: want=3 got=%d", len(executions))
	}
}
