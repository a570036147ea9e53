package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/opl224/fitgo/internal/db"
	"github.com/opl224/fitgo/internal/settings"
	"github.com/opl224/fitgo/internal/tracking"
)

const documentVersion = 1

// Document is the portable export format: everything needed to move the
// app state to another device.
type Document struct {
	Version    int                      `json:"version"`
	ExportedAt int64                    `json:"exported_at"`
	Settings   settings.Settings        `json:"settings"`
	Sessions   []tracking.SessionRecord `json:"sessions"`
}

// ImportResult reports how an import went. Sessions whose id already
// exists are skipped rather than overwritten.
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// SessionSource is the slice of the history service a backup needs.
type SessionSource interface {
	All(ctx context.Context) ([]tracking.SessionRecord, error)
	Save(ctx context.Context, record tracking.SessionRecord) error
}

// SettingsSource is the slice of the settings service a backup needs.
type SettingsSource interface {
	Get(ctx context.Context) (settings.Settings, error)
	Save(ctx context.Context, in settings.Settings) error
}

type Service struct {
	db       db.Querier
	sessions SessionSource
	settings SettingsSource
}

func NewService(q db.Querier, sessions SessionSource, settingsSrc SettingsSource) *Service {
	return &Service{db: q, sessions: sessions, settings: settingsSrc}
}

// Export assembles the full document and records the export in the
// backup_objects table so past exports stay listable.
func (s *Service) Export(ctx context.Context) (Document, error) {
	records, err := s.sessions.All(ctx)
	if err != nil {
		return Document{}, fmt.Errorf("export sessions: %w", err)
	}
	prefs, err := s.settings.Get(ctx)
	if err != nil {
		return Document{}, fmt.Errorf("export settings: %w", err)
	}
	doc := Document{
		Version:    documentVersion,
		ExportedAt: time.Now().UnixMilli(),
		Settings:   prefs,
		Sessions:   records,
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return Document{}, fmt.Errorf("marshal backup: %w", err)
	}
	if s.db != nil {
		_, err = s.db.Exec(ctx, `
			INSERT INTO backup_objects (id, created_at, session_count, size_bytes, payload)
			VALUES ($1, $2, $3, $4, $5)
		`, uuid.NewString(), time.Now(), len(records), len(payload), payload)
		if err != nil {
			// the caller still gets the document; the archive row is best effort
			log.Printf("backup: failed to record export: %v", err)
		}
	}
	return doc, nil
}

// Import restores settings and session records from a document. Records
// that fail to insert (typically duplicates from a re-import) are
// counted as skipped.
func (s *Service) Import(ctx context.Context, doc Document) (ImportResult, error) {
	if doc.Version != documentVersion {
		return ImportResult{}, fmt.Errorf("unsupported backup version %d", doc.Version)
	}
	if err := s.settings.Save(ctx, doc.Settings); err != nil {
		return ImportResult{}, fmt.Errorf("import settings: %w", err)
	}

	var result ImportResult
	for _, record := range doc.Sessions {
		if err := s.sessions.Save(ctx, record); err != nil {
			result.Skipped++
			continue
		}
		result.Imported++
	}
	return result, nil
}

// Exports lists the archived export rows, newest first.
func (s *Service) Exports(ctx context.Context) ([]ExportInfo, error) {
	if s.db == nil {
		return []ExportInfo{}, nil
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, created_at, session_count, size_bytes
		FROM backup_objects
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list exports: %w", err)
	}
	defer rows.Close()

	infos := []ExportInfo{}
	for rows.Next() {
		var info ExportInfo
		if err := rows.Scan(&info.ID, &info.CreatedAt, &info.SessionCount, &info.SizeBytes); err != nil {
			return nil, fmt.Errorf("scan export: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

type ExportInfo struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	SessionCount int       `json:"session_count"`
	SizeBytes    int       `json:"size_bytes"`
}
