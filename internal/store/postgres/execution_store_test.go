package postgres

import (
	"context"
	"math"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenceeditorial/auditengine/internal/models"
)

// setupTestDB opens a real PostgreSQL connection for integration tests,
// grounded on the teacher's setupRaceConditionTestDB TEST_POSTGRES_DSN
// convention (internal/store/postgres/race_condition_test.go): these
// tests are skipped entirely unless a test database is configured.
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set, skipping PostgreSQL integration test")
	}
	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSanitizeJSONDropsInfAndNaN(t *testing.T) {
	in := models.JSONMap{
		"finite":  1.5,
		"pos_inf": math.Inf(1),
		"neg_inf": math.Inf(-1),
		"nan":     math.NaN(),
		"nested":  map[string]any{"bad": math.NaN(), "ok": 2.0},
		"list":    []any{math.Inf(1), 3.0},
	}
	out := sanitizeJSON(in)
	assert.Equal(t, 1.5, out["finite"])
	assert.Nil(t, out["pos_inf"])
	assert.Nil(t, out["neg_inf"])
	assert.Nil(t, out["nan"])

	nested := out["nested"].(map[string]any)
	assert.Nil(t, nested["bad"])
	assert.Equal(t, 2.0, nested["ok"])

	list := out["list"].([]any)
	assert.Nil(t, list[0])
	assert.Equal(t, 3.0, list[1])
}

func TestSanitizeJSONNilMapReturnsNil(t *testing.T) {
	assert.Nil(t, sanitizeJSON(nil))
}

func TestExecutionStoreCreateGetUpdateRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	store := NewExecutionStore(db)
	ctx := context.Background()

	exec, err := store.CreateExecution(ctx, models.WorkflowTrendsAnalysis, models.JSONMap{"domain": "example.com"}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, exec.Status)

	fetched, err := store.GetExecution(ctx, exec.ExecutionID)
	require.NoError(t, err)
	assert.Equal(t, exec.ExecutionID, fetched.ExecutionID)
	assert.Equal(t, "example.com", fetched.InputData["domain"])

	require.NoError(t, store.UpdateExecution(ctx, exec.ExecutionID, models.StatusCompleted, models.JSONMap{"ok": true}, nil))

	done, err := store.GetExecution(ctx, exec.ExecutionID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, done.Status)
	assert.Equal(t, true, done.OutputData["ok"])

	err = store.UpdateExecution(ctx, exec.ExecutionID, models.StatusRunning, nil, nil)
	assert.Error(t, err, "updating an already-terminal execution must fail")
}

func TestExecutionStoreFindInFlightIgnoresTerminalRows(t *testing.T) {
	db := setupTestDB(t)
	store := NewExecutionStore(db)
	ctx := context.Background()
	domain := "find-in-flight-" + time.Now().UTC().Format("150405.000000") + ".example.com"

	exec, err := store.CreateExecution(ctx, models.WorkflowClientScraping, models.JSONMap{"domain": domain}, nil)
	require.NoError(t, err)

	inFlight, err := store.FindInFlight(ctx, models.WorkflowClientScraping, domain)
	require.NoError(t, err)
	require.NotNil(t, inFlight)
	assert.Equal(t, exec.ExecutionID, inFlight.ExecutionID)

	require.NoError(t, store.UpdateExecution(ctx, exec.ExecutionID, models.StatusCompleted, nil, nil))

	inFlight, err = store.FindInFlight(ctx, models.WorkflowClientScraping, domain)
	require.NoError(t, err)
	assert.Nil(t, inFlight)
}
