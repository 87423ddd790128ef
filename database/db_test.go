package database

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/XIIITrading/Meridian-sub001/confluence"
	"github.com/XIIITrading/Meridian-sub001/identify"
	"github.com/XIIITrading/Meridian-sub001/shared"
	"github.com/peterldowns/testy/assert"
)

func TestGenerateSummaryID(t *testing.T) {
	at := time.Date(2025, 2, 18, 10, 0, 0, 0, time.UTC)
	id := generateSummaryID(at, "^GSPC")
	assert.Equal(t, id, "February-Week-2-^GSPC")
}

func TestRunStatements(t *testing.T) {
	pivot, err := confluence.NewFixedZone("R3", 6040, 1)
	assert.NoError(t, err)
	pivot.Score = 18

	run := &AnalysisRun{
		ID:             "run-1",
		Market:         "^GSPC",
		ReferencePrice: 6032.25,
		Zones: []*shared.Zone{
			{ID: 1, Low: 6030, High: 6035, Center: 6032, Kind: shared.Support, Score: 9.5, Tier: shared.L2},
		},
		PivotZones: []*confluence.FixedZone{pivot},
		Levels: []*identify.TradingLevel{
			{Kind: shared.Resistance, Origin: identify.OriginSynthetic, Low: 6040, High: 6041, Score: 12, Tier: shared.L4},
		},
		CreatedOn: time.Now(),
	}

	stmts := runStatements(run)
	assert.Equal(t, len(stmts), 4)
	assert.Equal(t, stmts[0].SQL, persistRunSQL)
	assert.Equal(t, stmts[1].SQL, persistZoneSQL)
	assert.Equal(t, stmts[2].SQL, persistPivotSQL)
	assert.Equal(t, stmts[3].SQL, persistLevelSQL)

	// Ensure zone, pivot and level rows reference the run.
	assert.Equal(t, stmts[1].PositionalParams[1], "run-1")
	assert.Equal(t, stmts[2].PositionalParams[1], "run-1")
	assert.Equal(t, stmts[3].PositionalParams[1], "run-1")
	assert.Equal(t, stmts[1].PositionalParams[8], "L2")
	assert.Equal(t, stmts[2].PositionalParams[2], "R3")
	assert.Equal(t, stmts[2].PositionalParams[6], 18.0)
	assert.Equal(t, stmts[3].PositionalParams[3], "synthetic")
}

func TestPersistAnalysisRunStatementError(t *testing.T) {
	// A statement level error from the database must surface as an error,
	// not a crash, even without a configured logger.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[{"error":"UNIQUE constraint failed: run.id"}]}`))
	}))
	defer server.Close()

	ctx := context.Background()
	db, err := NewDatabase(ctx, &DatabaseConfig{Endpoint: server.URL})
	assert.NoError(t, err)

	run := &AnalysisRun{
		ID:             "run-1",
		Market:         "^GSPC",
		ReferencePrice: 6032.25,
		CreatedOn:      time.Now(),
	}

	err = db.PersistAnalysisRun(ctx, run)
	assert.Error(t, err)
	if !strings.Contains(err.Error(), "UNIQUE constraint") {
		t.Errorf("expected the statement error to surface, got %v", err)
	}
}
