package history

import (
	"context"
	"encoding/json"

	"github.com/opl224/fitgo/internal/db"
	"github.com/opl224/fitgo/internal/tracking"
)

const defaultPageSize = 50

// Service stores finished session records. Records are immutable: they are
// inserted once at finish and never updated, so the accumulated distance
// can never drift from the stored path.
type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

func (s *Service) Save(ctx context.Context, record tracking.SessionRecord) error {
	pathJSON, err := json.Marshal(record.Path)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO run_sessions (id, type, start_time_ms, duration_s, distance_km, path, calories, avg_pace)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, record.ID, record.Type, record.StartTime, record.Duration, record.Distance, pathJSON, record.Calories, record.AvgPace)
	return err
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]tracking.SessionRecord, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, type, start_time_ms, duration_s, distance_km, path, calories, avg_pace
		FROM run_sessions
		ORDER BY start_time_ms DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []tracking.SessionRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// All returns every stored record, newest first. Used by backup export.
func (s *Service) All(ctx context.Context) ([]tracking.SessionRecord, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, type, start_time_ms, duration_s, distance_km, path, calories, avg_pace
		FROM run_sessions
		ORDER BY start_time_ms DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []tracking.SessionRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (s *Service) Get(ctx context.Context, id string) (tracking.SessionRecord, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, type, start_time_ms, duration_s, distance_km, path, calories, avg_pace
		FROM run_sessions WHERE id=$1
	`, id)
	return scanRecord(row)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM run_sessions WHERE id=$1`, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (tracking.SessionRecord, error) {
	var record tracking.SessionRecord
	var pathJSON []byte
	if err := row.Scan(&record.ID, &record.Type, &record.StartTime, &record.Duration,
		&record.Distance, &pathJSON, &record.Calories, &record.AvgPace); err != nil {
		return tracking.SessionRecord{}, err
	}
	if len(pathJSON) > 0 {
		if err := json.Unmarshal(pathJSON, &record.Path); err != nil {
			return tracking.SessionRecord{}, err
		}
	}
	return record, nil
}
