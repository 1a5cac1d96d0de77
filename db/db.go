package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/extra/bundebug"

	"github.com/padraicbc/racingdb/config"
	"github.com/padraicbc/racingdb/metrics"
	"github.com/padraicbc/racingdb/models"
)

// Setup opens the MySQL handle described by cfg. It does not dial; callers
// ping through the Pool so an unreachable server is a warning, not a crash.
func Setup(cfg *config.Config) (*bun.DB, error) {
	mc, err := mysql.ParseDSN(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	connector, err := mysql.NewConnector(mc)
	if err != nil {
		return nil, fmt.Errorf("mysql connector: %w", err)
	}

	sqldb := sql.OpenDB(connector)
	sqldb.SetMaxOpenConns(cfg.ConnectionLimit)
	sqldb.SetMaxIdleConns(cfg.ConnectionLimit)

	return Wrap(sqldb, cfg.Debug), nil
}

// Wrap puts bun over an already opened handle and installs the query hooks.
func Wrap(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, mysqldialect.New())
	db.AddQueryHook(metrics.NewQueryHook())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

// CreateTables creates the tables the service owns. Domain tables belong to
// the database and are never created here.
func CreateTables(ctx context.Context, db bun.IDB) error {
	tables := []interface{}{
		(*models.User)(nil),
	}

	for _, model := range tables {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("creating table for %T: %w", model, err)
		}
	}
	return nil
}

// MissingProcedures returns the names in want that the connected schema does
// not define as stored procedures, in the order given.
func MissingProcedures(ctx context.Context, db bun.IDB, want []string) ([]string, error) {
	var have []string
	err := db.NewSelect().
		TableExpr("information_schema.ROUTINES").
		ColumnExpr("ROUTINE_NAME").
		Where("ROUTINE_SCHEMA = DATABASE()").
		Where("ROUTINE_TYPE = ?", "PROCEDURE").
		Scan(ctx, &have)
	if err != nil {
		return nil, fmt.Errorf("list procedures: %w", err)
	}

	defined := make(map[string]bool, len(have))
	for _, name := range have {
		defined[strings.ToLower(name)] = true
	}
	var missing []string
	for _, name := range want {
		if !defined[strings.ToLower(name)] {
			missing = append(missing, name)
		}
	}
	return missing, nil
}
