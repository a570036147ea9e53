package pacezone

import (
	"context"

	"github.com/opl224/fitgo/internal/db"
	"github.com/opl224/fitgo/internal/shared/geo"
	"github.com/opl224/fitgo/internal/tracking"

	"github.com/google/uuid"
)

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

func (s *Service) CreateZone(ctx context.Context, input Zone) (Zone, error) {
	input.ID = uuid.NewString()
	row := s.db.QueryRow(ctx, `
		INSERT INTO pace_zones (id, name, min_pace_s, max_pace_s, color)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at
	`, input.ID, input.Name, input.MinPaceS, input.MaxPaceS, input.Color)
	if err := row.Scan(&input.CreatedAt); err != nil {
		return Zone{}, err
	}
	return input, nil
}

func (s *Service) UpdateZone(ctx context.Context, id string, patch Zone) (Zone, error) {
	zone, err := s.GetZone(ctx, id)
	if err != nil {
		return Zone{}, err
	}
	if patch.Name != "" {
		zone.Name = patch.Name
	}
	if patch.MinPaceS != 0 {
		zone.MinPaceS = patch.MinPaceS
	}
	if patch.MaxPaceS != 0 {
		zone.MaxPaceS = patch.MaxPaceS
	}
	if patch.Color != "" {
		zone.Color = patch.Color
	}

	_, err = s.db.Exec(ctx, `
		UPDATE pace_zones
		SET name=$2, min_pace_s=$3, max_pace_s=$4, color=$5
		WHERE id=$1
	`, zone.ID, zone.Name, zone.MinPaceS, zone.MaxPaceS, zone.Color)
	if err != nil {
		return Zone{}, err
	}
	return zone, nil
}

func (s *Service) GetZone(ctx context.Context, id string) (Zone, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, min_pace_s, max_pace_s, color, created_at
		FROM pace_zones WHERE id=$1
	`, id)
	var zone Zone
	if err := row.Scan(&zone.ID, &zone.Name, &zone.MinPaceS, &zone.MaxPaceS, &zone.Color, &zone.CreatedAt); err != nil {
		return Zone{}, err
	}
	return zone, nil
}

func (s *Service) Zones(ctx context.Context) ([]Zone, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, min_pace_s, max_pace_s, color, created_at
		FROM pace_zones
		ORDER BY min_pace_s
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var zones []Zone
	for rows.Next() {
		var zone Zone
		if err := rows.Scan(&zone.ID, &zone.Name, &zone.MinPaceS, &zone.MaxPaceS, &zone.Color, &zone.CreatedAt); err != nil {
			return nil, err
		}
		zones = append(zones, zone)
	}
	return zones, nil
}

func (s *Service) DeleteZone(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM pace_zones WHERE id=$1`, id)
	return err
}

// Tag assigns a zone id to each path point from the pace of the segment
// ending at it. The first point and segments without displacement or
// timestamps stay untagged. The path itself is never reordered or trimmed,
// so the recorded distance stays in sync with it.
func (s *Service) Tag(ctx context.Context, path []tracking.TrackPoint) ([]tracking.TrackPoint, error) {
	zones, err := s.Zones(ctx)
	if err != nil {
		return nil, err
	}
	return TagWithZones(path, zones), nil
}

func TagWithZones(path []tracking.TrackPoint, zones []Zone) []tracking.TrackPoint {
	if len(zones) == 0 {
		return path
	}
	tagged := append([]tracking.TrackPoint(nil), path...)
	for i := 1; i < len(tagged); i++ {
		prev, cur := tagged[i-1], tagged[i]
		dKm := geo.HaversineKm(prev.Latitude, prev.Longitude, cur.Latitude, cur.Longitude)
		dtSec := float64(cur.TimestampMs-prev.TimestampMs) / 1000
		if dKm <= 0 || dtSec <= 0 {
			continue
		}
		pace := dtSec / dKm
		for _, zone := range zones {
			if pace >= zone.MinPaceS && pace < zone.MaxPaceS {
				tagged[i].PaceZoneID = zone.ID
				break
			}
		}
	}
	return tagged
}
