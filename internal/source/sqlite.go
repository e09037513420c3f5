package source

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/unihub/eventgrid/internal/contract"
)

const listEventsQuery = `
SELECT
  id,
  COALESCE(name, '') AS name,
  event_start_date_utc,
  event_end_date_utc,
  COALESCE(event_timezone, '') AS event_timezone
FROM event
ORDER BY id ASC;
`

// sqliteSource reads the event table of a database snapshot, read-only.
type sqliteSource struct {
	path string
	opts Options
}

func (s *sqliteSource) Path() string   { return s.path }
func (s *sqliteSource) Format() Format { return FormatSQLite }

var (
	readDBMu    sync.Mutex
	readDBCache = map[string]*sql.DB{}
)

// openReadDB returns a shared read-only handle per database file.
func openReadDB(path string) (*sql.DB, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	readDBMu.Lock()
	defer readDBMu.Unlock()
	if db, ok := readDBCache[abs]; ok {
		return db, nil
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", "file:"+abs+"?mode=ro")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	readDBCache[abs] = db
	return db, nil
}

func (s *sqliteSource) Load(ctx context.Context) (Result, error) {
	db, err := openReadDB(s.path)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	records, err := listRecordsViaSQLite(ctx, db)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return convertRecords(records), nil
}

func listRecordsViaSQLite(ctx context.Context, db *sql.DB) ([]record, error) {
	rows, err := db.QueryContext(ctx, listEventsQuery)
	if err != nil {
		return nil, fmt.Errorf("sqlite query failed: %w", err)
	}
	defer rows.Close()

	out := make([]record, 0)
	for rows.Next() {
		var id, start, end any
		var name, zone string
		if err := rows.Scan(&id, &name, &start, &end, &zone); err != nil {
			return nil, fmt.Errorf("sqlite scan failed: %w", err)
		}
		out = append(out, record{
			ID:       columnText(id),
			Name:     name,
			Start:    columnText(start),
			End:      columnText(end),
			Timezone: zone,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite rows failed: %w", err)
	}
	return out, nil
}

// columnText renders a dynamically typed column the way parseInstant and
// record ids expect it.
func columnText(v any) rawValue {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return rawValue(x)
	case []byte:
		return rawValue(x)
	case int64:
		return rawValue(strconv.FormatInt(x, 10))
	case float64:
		return rawValue(strconv.FormatFloat(x, 'f', -1, 64))
	case time.Time:
		return rawValue(x.UTC().Format(time.RFC3339Nano))
	default:
		return rawValue(fmt.Sprint(x))
	}
}

func (s *sqliteSource) Doctor(ctx context.Context) ([]contract.DoctorCheck, error) {
	checks := []contract.DoctorCheck{}
	db, err := openReadDB(s.path)
	if err != nil {
		checks = append(checks, contract.DoctorCheck{Name: "source_db", Status: "fail", Message: err.Error()})
		return checks, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	checks = append(checks, contract.DoctorCheck{Name: "source_db", Status: "ok", Message: s.path})

	var one int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		checks = append(checks, contract.DoctorCheck{Name: "source_db_read", Status: "fail", Message: err.Error()})
		return checks, fmt.Errorf("%w: database exists but is not readable: %v", ErrUnavailable, err)
	}
	checks = append(checks, contract.DoctorCheck{Name: "source_db_read", Status: "ok", Message: "database readable"})
	return appendLoadCheck(ctx, s, checks)
}
