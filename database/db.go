// Package database persists analysis runs and their ranked zones and
// trading levels to rqlite.
package database

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/XIIITrading/Meridian-sub001/confluence"
	"github.com/XIIITrading/Meridian-sub001/identify"
	"github.com/XIIITrading/Meridian-sub001/shared"
	"github.com/davecgh/go-spew/spew"
	"github.com/google/uuid"
	rqlitehttp "github.com/rqlite/rqlite-go-http"
	"github.com/rs/zerolog"
)

const (
	// SQL statements.
	createRunTableSQL     = "CREATE TABLE IF NOT EXISTS run (id TEXT PRIMARY KEY, market TEXT, referenceprice REAL, zonecount INTEGER, levelcount INTEGER, createdon INTEGER)"
	createZoneTableSQL    = "CREATE TABLE IF NOT EXISTS zone (id TEXT PRIMARY KEY, runid TEXT, zoneid INTEGER, low REAL, high REAL, center REAL, kind TEXT, score REAL, tier TEXT, members INTEGER, distancepercent REAL)"
	createLevelTableSQL   = "CREATE TABLE IF NOT EXISTS level (id TEXT PRIMARY KEY, runid TEXT, kind TEXT, origin TEXT, low REAL, high REAL, score REAL, tier TEXT, priority REAL, createdon INTEGER)"
	createPivotTableSQL   = "CREATE TABLE IF NOT EXISTS pivot (id TEXT PRIMARY KEY, runid TEXT, levelname TEXT, low REAL, high REAL, pivotprice REAL, score REAL, tier TEXT, members INTEGER)"
	createSummaryTableSQL = "CREATE TABLE IF NOT EXISTS summary (id TEXT PRIMARY KEY, runs INTEGER, zones INTEGER, levels INTEGER, createdon INTEGER)"
	persistRunSQL         = "INSERT INTO run(id, market, referenceprice, zonecount, levelcount, createdon) VALUES(?,?,?,?,?,?)"
	persistZoneSQL        = "INSERT INTO zone(id, runid, zoneid, low, high, center, kind, score, tier, members, distancepercent) VALUES(?,?,?,?,?,?,?,?,?,?,?)"
	persistLevelSQL       = "INSERT INTO level(id, runid, kind, origin, low, high, score, tier, priority, createdon) VALUES(?,?,?,?,?,?,?,?,?,?)"
	persistPivotSQL       = "INSERT INTO pivot(id, runid, levelname, low, high, pivotprice, score, tier, members) VALUES(?,?,?,?,?,?,?,?,?)"
	findSummarySQL        = "SELECT * FROM summary WHERE id = ?"
	updateSummarySQL      = "UPDATE summary SET runs = runs + 1, zones = zones + ?, levels = levels + ? WHERE id = ?"
	persistSummarySQL     = "INSERT INTO summary(id, runs, zones, levels, createdon) VALUES(?,?,?,?,?)"
)

// AnalysisRun is one persisted scan of a market.
type AnalysisRun struct {
	// ID uniquely identifies the run, assigned on persistence.
	ID string
	// Market is the scanned market.
	Market string
	// ReferencePrice is the price the scan ran against.
	ReferencePrice float64
	// Zones are the discovered zones, ranked.
	Zones []*shared.Zone
	// PivotZones are the fixed pivot zones with their weighted confluence,
	// ranked.
	PivotZones []*confluence.FixedZone
	// Levels are the identified trading levels, ranked.
	Levels []*identify.TradingLevel
	// CreatedOn is the scan time.
	CreatedOn time.Time
}

// RunStorer defines the requirements for storing analysis runs.
type RunStorer interface {
	// PersistAnalysisRun stores the provided analysis run to the database.
	PersistAnalysisRun(ctx context.Context, run *AnalysisRun) error
}

// DatabaseConfig is the configuration for the database.
type DatabaseConfig struct {
	// Endpoint represents the database connection endpoint.
	Endpoint string
	// User is the database user.
	User string
	// Pass is the database user pass.
	Pass string
	// Logger is the database logger.
	Logger *zerolog.Logger
}

// Database represents the database connection.
type Database struct {
	cfg    *DatabaseConfig
	client *rqlitehttp.Client
}

// Ensure the database implements the RunStorer interface.
var _ RunStorer = (*Database)(nil)

// NewDatabase initializes a new database connection.
func NewDatabase(ctx context.Context, cfg *DatabaseConfig) (*Database, error) {
	httpc := &http.Client{Timeout: time.Second * 5}
	client, err := rqlitehttp.NewClient(cfg.Endpoint, httpc)
	if err != nil {
		return nil, fmt.Errorf("creating database client: %w", err)
	}

	client.SetBasicAuth(cfg.User, cfg.Pass)

	db := &Database{
		cfg:    cfg,
		client: client,
	}

	err = db.bootstrap(ctx)
	if err != nil {
		return nil, fmt.Errorf("bootstrapping database: %w", err)
	}

	return db, nil
}

// bootstrap initializes the database.
func (db *Database) bootstrap(ctx context.Context) error {
	_, err := db.client.Execute(ctx, rqlitehttp.SQLStatements{
		{SQL: createRunTableSQL},
		{SQL: createZoneTableSQL},
		{SQL: createLevelTableSQL},
		{SQL: createPivotTableSQL},
		{SQL: createSummaryTableSQL},
	}, &rqlitehttp.ExecuteOptions{
		Transaction: true,
		Timings:     true,
	})
	if err != nil {
		return err
	}

	return nil
}

// generateSummaryID generates deterministic ids for scan summaries using
// the current month, week and market.
func generateSummaryID(currentTime time.Time, market string) string {
	month := currentTime.Month().String()
	week := currentTime.Day() / 7

	id := fmt.Sprintf("%s-Week-%d-%s", month, week, market)
	return id
}

// runStatements builds the insert statements for the provided run.
func runStatements(run *AnalysisRun) rqlitehttp.SQLStatements {
	stmts := rqlitehttp.SQLStatements{
		{
			SQL: persistRunSQL,
			PositionalParams: []any{run.ID, run.Market, run.ReferencePrice, len(run.Zones),
				len(run.Levels), run.CreatedOn.Unix()},
		},
	}

	for _, zone := range run.Zones {
		stmts = append(stmts, &rqlitehttp.SQLStatement{
			SQL: persistZoneSQL,
			PositionalParams: []any{uuid.NewString(), run.ID, zone.ID, zone.Low, zone.High,
				zone.Center, zone.Kind.String(), zone.Score, zone.Tier.String(),
				len(zone.Members), zone.DistancePercent},
		})
	}

	for _, pivot := range run.PivotZones {
		stmts = append(stmts, &rqlitehttp.SQLStatement{
			SQL: persistPivotSQL,
			PositionalParams: []any{uuid.NewString(), run.ID, pivot.LevelName, pivot.Low,
				pivot.High, pivot.PivotPrice, pivot.Score, pivot.Tier.String(),
				len(pivot.Members)},
		})
	}

	for _, level := range run.Levels {
		stmts = append(stmts, &rqlitehttp.SQLStatement{
			SQL: persistLevelSQL,
			PositionalParams: []any{uuid.NewString(), run.ID, level.Kind.String(),
				level.Origin.String(), level.Low, level.High, level.Score,
				level.Tier.String(), level.Priority, level.Timestamp.Unix()},
		})
	}

	return stmts
}

// PersistAnalysisRun stores the provided analysis run to the database.
func (db *Database) PersistAnalysisRun(ctx context.Context, run *AnalysisRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedOn.IsZero() {
		now, _, err := shared.NewYorkTime()
		if err != nil {
			return err
		}
		run.CreatedOn = now
	}

	resp, err := db.client.Execute(ctx, runStatements(run),
		&rqlitehttp.ExecuteOptions{Transaction: true, Timings: true})
	if err != nil {
		return err
	}
	has, idx, errStr := resp.HasError()
	if has {
		if db.cfg.Logger != nil {
			db.cfg.Logger.Error().Msgf("unexpected analysis run state for persistence: %s", spew.Sdump(run))
		}
		return fmt.Errorf("persisting run %s: %d -> %s", run.ID, idx, errStr)
	}

	return db.updateSummary(ctx, run)
}

// updateSummary upserts the weekly scan summary for the run's market.
func (db *Database) updateSummary(ctx context.Context, run *AnalysisRun) error {
	id := generateSummaryID(run.CreatedOn, run.Market)
	resp, err := db.client.QuerySingle(ctx, findSummarySQL, id)
	if err != nil {
		return err
	}

	exists := len(resp.GetQueryResultsAssoc()) > 0
	switch {
	case exists:
		resp, err := db.client.Execute(ctx, rqlitehttp.SQLStatements{
			{
				SQL:              updateSummarySQL,
				PositionalParams: []any{len(run.Zones), len(run.Levels), id},
			},
		}, &rqlitehttp.ExecuteOptions{Transaction: true, Timings: true})
		if err != nil {
			return err
		}
		has, idx, errStr := resp.HasError()
		if has {
			return fmt.Errorf("updating summary %s: %d -> %s", id, idx, errStr)
		}
	default:
		resp, err := db.client.Execute(ctx, rqlitehttp.SQLStatements{
			{
				SQL:              persistSummarySQL,
				PositionalParams: []any{id, 1, len(run.Zones), len(run.Levels), run.CreatedOn.Unix()},
			},
		}, &rqlitehttp.ExecuteOptions{Transaction: true, Timings: true})
		if err != nil {
			return err
		}
		has, idx, errStr := resp.HasError()
		if has {
			return fmt.Errorf("creating summary %s: %d -> %s", id, idx, errStr)
		}
	}

	return nil
}
