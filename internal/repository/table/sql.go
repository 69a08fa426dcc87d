package table

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"           // postgres driver
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// ReadSQLSource connects with driver and dsn, reads one table and closes the connection.
func ReadSQLSource(ctx context.Context, driver, dsn, tableName string) (Table, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return Table{}, fmt.Errorf("open %s: %w", driver, err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return Table{}, fmt.Errorf("ping %s: %w", driver, err)
	}
	return ReadSQL(ctx, db, tableName)
}

// ReadSQL reads every row of tableName. Column order follows the table definition.
func ReadSQL(ctx context.Context, db *sqlx.DB, tableName string) (Table, error) {
	if !identRe.MatchString(tableName) {
		return Table{}, fmt.Errorf("invalid table name %q", tableName)
	}

	rows, err := db.QueryxContext(ctx, "SELECT * FROM "+tableName)
	if err != nil {
		return Table{}, fmt.Errorf("query %s: %w", tableName, err)
	}
	defer rows.Close()

	header, err := rows.Columns()
	if err != nil {
		return Table{}, fmt.Errorf("columns of %s: %w", tableName, err)
	}

	var cells [][]string
	for rows.Next() {
		vals, err := rows.SliceScan()
		if err != nil {
			return Table{}, fmt.Errorf("scan %s: %w", tableName, err)
		}
		row := make([]string, len(vals))
		for i, v := range vals {
			row[i] = cellString(v)
		}
		cells = append(cells, row)
	}
	if err := rows.Err(); err != nil {
		return Table{}, fmt.Errorf("iterate %s: %w", tableName, err)
	}
	return normalize(header, cells)
}

func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}
