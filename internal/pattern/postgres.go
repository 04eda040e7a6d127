package pattern

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"moodcast/internal/logging"
	"moodcast/pkg/types"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS personal_patterns (
	id TEXT PRIMARY KEY,
	type TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	mood_impact DOUBLE PRECISION NOT NULL,
	confidence DOUBLE PRECISION NOT NULL,
	weekday SMALLINT,
	month_day TEXT,
	keywords TEXT[] NOT NULL DEFAULT '{}',
	occupation TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	last_seen_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_personal_patterns_type ON personal_patterns(type);
CREATE INDEX IF NOT EXISTS idx_personal_patterns_month_day ON personal_patterns(month_day);
`

// patternColumns is the select list shared by every query, in scan order.
const patternColumns = `id, type, description, mood_impact, confidence,
	weekday, month_day, keywords, occupation, created_at, last_seen_at`

// orderClause keeps Postgres listings in the same order as MemoryStore.
const orderClause = `ORDER BY confidence DESC, created_at ASC, id ASC`

// SQLStore persists patterns in PostgreSQL.
type SQLStore struct {
	db     *sql.DB
	logger logging.Logger
}

// NewSQLStore connects to Postgres, verifies the connection, and ensures
// the schema exists.
func NewSQLStore(dsn string, logger logging.Logger) (*SQLStore, error) {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	if _, err := db.Exec(postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLStore{db: db, logger: logger}, nil
}

// Put validates and upserts a pattern by ID.
func (s *SQLStore) Put(ctx context.Context, p *types.PersonalPattern) error {
	if err := checkPattern(p); err != nil {
		return err
	}

	var weekday interface{}
	if p.Weekday != nil {
		weekday = int(*p.Weekday)
	}
	var monthDay interface{}
	if p.MonthDay != nil {
		monthDay = p.MonthDay.String()
	}
	keywords := p.Keywords
	if keywords == nil {
		keywords = []string{}
	}

	query := `
		INSERT INTO personal_patterns (
			id, type, description, mood_impact, confidence,
			weekday, month_day, keywords, occupation, created_at, last_seen_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		) ON CONFLICT (id) DO UPDATE SET
			type = EXCLUDED.type,
			description = EXCLUDED.description,
			mood_impact = EXCLUDED.mood_impact,
			confidence = EXCLUDED.confidence,
			weekday = EXCLUDED.weekday,
			month_day = EXCLUDED.month_day,
			keywords = EXCLUDED.keywords,
			occupation = EXCLUDED.occupation,
			last_seen_at = EXCLUDED.last_seen_at`

	_, err := s.db.ExecContext(ctx, query,
		p.ID,
		string(p.Type),
		p.Description,
		p.MoodImpact,
		p.Confidence,
		weekday,
		monthDay,
		pq.Array(keywords),
		string(p.Occupation),
		p.CreatedAt.UTC(),
		p.LastSeenAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to store pattern: %w", err)
	}

	s.logger.Info("Stored pattern", "id", p.ID, "type", string(p.Type))
	return nil
}

// scanPattern reads one row into a PersonalPattern.
func scanPattern(scanner interface{ Scan(dest ...interface{}) error }) (*types.PersonalPattern, error) {
	var (
		p          types.PersonalPattern
		patternTyp string
		weekday    sql.NullInt64
		monthDay   sql.NullString
		keywords   pq.StringArray
		occupation string
	)

	err := scanner.Scan(
		&p.ID,
		&patternTyp,
		&p.Description,
		&p.MoodImpact,
		&p.Confidence,
		&weekday,
		&monthDay,
		&keywords,
		&occupation,
		&p.CreatedAt,
		&p.LastSeenAt,
	)
	if err != nil {
		return nil, err
	}

	p.Type = types.PatternType(patternTyp)
	p.Occupation = types.OccupationType(occupation)
	if weekday.Valid {
		wd := time.Weekday(weekday.Int64)
		p.Weekday = &wd
	}
	if monthDay.Valid {
		md, err := types.ParseMonthDay(monthDay.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse stored month-day: %w", err)
		}
		p.MonthDay = &md
	}
	if len(keywords) > 0 {
		p.Keywords = []string(keywords)
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.LastSeenAt = p.LastSeenAt.UTC()

	return &p, nil
}

// scanPatterns drains rows into a slice.
func (s *SQLStore) scanPatterns(rows *sql.Rows) ([]types.PersonalPattern, error) {
	var patterns []types.PersonalPattern
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pattern: %w", err)
		}
		patterns = append(patterns, *p)
	}
	return patterns, rows.Err()
}

// listWhere runs a filtered listing in the shared order.
func (s *SQLStore) listWhere(ctx context.Context, where string, args ...interface{}) ([]types.PersonalPattern, error) {
	query := `SELECT ` + patternColumns + ` FROM personal_patterns`
	if where != "" {
		query += ` WHERE ` + where
	}
	query += ` ` + orderClause

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list patterns: %w", err)
	}
	defer rows.Close()

	return s.scanPatterns(rows)
}

// Get retrieves a pattern by ID.
func (s *SQLStore) Get(ctx context.Context, id string) (*types.PersonalPattern, error) {
	query := `SELECT ` + patternColumns + ` FROM personal_patterns WHERE id = $1`

	p, err := scanPattern(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pattern: %w", err)
	}
	return p, nil
}

// Remove deletes a pattern by ID.
func (s *SQLStore) Remove(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM personal_patterns WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete pattern: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	s.logger.Info("Deleted pattern", "id", id)
	return nil
}

// All returns every stored pattern.
func (s *SQLStore) All(ctx context.Context) ([]types.PersonalPattern, error) {
	return s.listWhere(ctx, "")
}

// ListByType returns all patterns of the given type.
func (s *SQLStore) ListByType(ctx context.Context, pt types.PatternType) ([]types.PersonalPattern, error) {
	return s.listWhere(ctx, `type = $1`, string(pt))
}

// PatternsForDate returns significant-date and weekday patterns firing on date.
func (s *SQLStore) PatternsForDate(ctx context.Context, date time.Time) ([]types.PersonalPattern, error) {
	md := types.MonthDay{Month: date.Month(), Day: date.Day()}
	return s.listWhere(ctx,
		`(type = $1 AND month_day = $2) OR (type = $3 AND weekday = $4)`,
		string(types.PatternSignificantDate), md.String(),
		string(types.PatternWeekdayPreference), int(date.Weekday()),
	)
}

// WeekdayPatterns returns weekday-preference patterns for one weekday.
func (s *SQLStore) WeekdayPatterns(ctx context.Context, weekday time.Weekday) ([]types.PersonalPattern, error) {
	return s.listWhere(ctx,
		`type = $1 AND weekday = $2`,
		string(types.PatternWeekdayPreference), int(weekday),
	)
}

// TriggerPatterns returns all recurring-trigger patterns.
func (s *SQLStore) TriggerPatterns(ctx context.Context) ([]types.PersonalPattern, error) {
	return s.ListByType(ctx, types.PatternRecurringTrigger)
}

// Occupation returns the highest-confidence occupation category.
func (s *SQLStore) Occupation(ctx context.Context) (types.OccupationType, error) {
	query := `SELECT occupation FROM personal_patterns WHERE type = $1 ` + orderClause + ` LIMIT 1`

	var occupation string
	err := s.db.QueryRowContext(ctx, query, string(types.PatternOccupation)).Scan(&occupation)
	if errors.Is(err, sql.ErrNoRows) {
		return types.OccupationUnknown, nil
	}
	if err != nil {
		return types.OccupationUnknown, fmt.Errorf("failed to get occupation: %w", err)
	}
	return types.OccupationType(occupation), nil
}

// Count returns the number of stored patterns.
func (s *SQLStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM personal_patterns`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count patterns: %w", err)
	}
	return count, nil
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
