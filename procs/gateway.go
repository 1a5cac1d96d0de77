// Package procs invokes the database's stored procedures and turns their
// first result set into JSON-ready rows.
package procs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/padraicbc/racingdb/apperr"
	"github.com/padraicbc/racingdb/db"
	"github.com/padraicbc/racingdb/models"
)

// Row is one normalized result row keyed by column name.
type Row = map[string]any

// Gateway is the only path from request handlers to the database.
type Gateway struct {
	pool *db.Pool
	log  *zap.Logger
}

// NewGateway returns a gateway that runs every call through pool.
func NewGateway(pool *db.Pool, log *zap.Logger) *Gateway {
	return &Gateway{pool: pool, log: log}
}

// Invoke calls p with args in declared order. Procedures with a result set
// return its rows, never nil; the rest return an empty slice on success.
// Database errors come back unchanged. A call is never cancelled once
// dispatched, even if ctx is.
func (g *Gateway) Invoke(ctx context.Context, p Procedure, args ...any) ([]Row, error) {
	vals, err := p.Coerce(args)
	if err != nil {
		return nil, err
	}

	ctx = context.WithoutCancel(ctx)
	rows := []Row{}
	start := time.Now()
	err = g.pool.Run(ctx, func(ctx context.Context, idb bun.IDB) error {
		if !p.ResultSet {
			_, err := idb.ExecContext(ctx, p.Statement(), vals...)
			return err
		}
		rs, err := idb.QueryContext(ctx, p.Statement(), vals...)
		if err != nil {
			return err
		}
		defer rs.Close()
		rows, err = scanRows(rs)
		return err
	})
	if err != nil {
		g.log.Debug("procedure failed", zap.String("procedure", p.Name), zap.Error(err))
		return nil, err
	}
	g.log.Debug("procedure",
		zap.String("procedure", p.Name),
		zap.Int("rows", len(rows)),
		zap.Duration("took", time.Since(start)))
	return rows, nil
}

// HorseByID reads a horse's id and current stable.
func (g *Gateway) HorseByID(ctx context.Context, horseID string) (*models.Horse, error) {
	horse := &models.Horse{}
	err := g.pool.Run(context.WithoutCancel(ctx), func(ctx context.Context, idb bun.IDB) error {
		return idb.NewSelect().Model(horse).
			Column("horseId", "stableId").
			Where("?TableAlias.horseId = ?", horseID).
			Limit(1).
			Scan(ctx)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &apperr.NotFoundError{Resource: "Horse", ID: horseID}
	}
	if err != nil {
		return nil, fmt.Errorf("select horse: %w", err)
	}
	return horse, nil
}

// Ping checks the database is reachable.
func (g *Gateway) Ping(ctx context.Context) error {
	return g.pool.Ping(ctx)
}

// scanRows reads the current result set. Later result sets, such as the
// status packet that ends every CALL, are discarded by Close.
func scanRows(rs *sql.Rows) ([]Row, error) {
	types, err := rs.ColumnTypes()
	if err != nil {
		return nil, err
	}

	out := []Row{}
	vals := make([]any, len(types))
	ptrs := make([]any, len(types))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rs.Next() {
		if err := rs.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(types))
		for i, ct := range types {
			row[ct.Name()] = normalize(vals[i], ct.DatabaseTypeName())
		}
		out = append(out, row)
	}
	return out, rs.Err()
}

// normalize turns a driver value into something encoding/json renders the
// way the browser UI expects. DECIMAL stays text so money is never rounded.
func normalize(v any, dbType string) any {
	switch x := v.(type) {
	case nil:
		return nil
	case []byte:
		return normalizeText(string(x), dbType)
	case string:
		return normalizeText(x, dbType)
	case float32:
		return cast.ToFloat64(cast.ToString(x))
	case time.Time:
		if dbType == "DATE" {
			return x.Format(time.DateOnly)
		}
		return x.Format(time.DateTime)
	default:
		return x
	}
}

func normalizeText(s, dbType string) any {
	switch strings.TrimPrefix(dbType, "UNSIGNED ") {
	case "TINYINT", "SMALLINT", "MEDIUMINT", "INT", "BIGINT", "YEAR":
		if strings.HasPrefix(dbType, "UNSIGNED ") {
			if n, err := cast.ToUint64E(s); err == nil {
				return n
			}
			return s
		}
		if n, err := cast.ToInt64E(s); err == nil {
			return n
		}
	case "FLOAT", "DOUBLE":
		if f, err := cast.ToFloat64E(s); err == nil {
			return f
		}
	}
	return s
}
