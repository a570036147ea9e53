package workout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/opl224/fitgo/internal/db"
)

var ErrPresetNotFound = errors.New("workout preset not found")

type Service struct {
	db db.Querier
}

func NewService(q db.Querier) *Service {
	return &Service{db: q}
}

func (s *Service) CreatePreset(ctx context.Context, name, typ string, targetPaceS float64) (Preset, error) {
	p := Preset{
		ID:          uuid.NewString(),
		Name:        name,
		Type:        typ,
		TargetPaceS: targetPaceS,
		CreatedAt:   time.Now(),
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO workout_presets (id, name, type, target_pace_s, created_at) VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.Name, p.Type, p.TargetPaceS, p.CreatedAt)
	if err != nil {
		return Preset{}, fmt.Errorf("insert workout preset: %w", err)
	}
	return p, nil
}

func (s *Service) Presets(ctx context.Context) ([]Preset, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, type, target_pace_s, created_at FROM workout_presets ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query workout presets: %w", err)
	}
	defer rows.Close()

	presets := []Preset{}
	for rows.Next() {
		var p Preset
		if err := rows.Scan(&p.ID, &p.Name, &p.Type, &p.TargetPaceS, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan workout preset: %w", err)
		}
		presets = append(presets, p)
	}
	return presets, rows.Err()
}

func (s *Service) Preset(ctx context.Context, id string) (Preset, error) {
	var p Preset
	err := s.db.QueryRow(ctx,
		`SELECT id, name, type, target_pace_s, created_at FROM workout_presets WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Type, &p.TargetPaceS, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Preset{}, ErrPresetNotFound
	}
	if err != nil {
		return Preset{}, fmt.Errorf("get workout preset: %w", err)
	}
	return p, nil
}

func (s *Service) DeletePreset(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM workout_presets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete workout preset: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPresetNotFound
	}
	return nil
}
