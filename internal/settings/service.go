package settings

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/opl224/fitgo/internal/shared/display"
)

const settingsKey = "settings"

// Settings holds the user-tunable preferences applied to every screen.
type Settings struct {
	UnitSystem display.UnitSystem `json:"unit_system"`
	Language   string             `json:"language"`
	AudioCues  bool               `json:"audio_cues"`
	DarkMode   bool               `json:"dark_mode"`
}

func Defaults() Settings {
	return Settings{
		UnitSystem: display.Metric,
		Language:   "en",
		AudioCues:  true,
		DarkMode:   false,
	}
}

type Service struct {
	redis *redis.Client
}

func NewService(client *redis.Client) *Service {
	return &Service{redis: client}
}

// Get returns the stored settings, falling back to defaults for any
// field that has never been written.
func (s *Service) Get(ctx context.Context) (Settings, error) {
	out := Defaults()
	if s.redis == nil {
		return out, nil
	}

	fields, err := s.redis.HGetAll(ctx, settingsKey).Result()
	if err != nil {
		return Settings{}, fmt.Errorf("load settings: %w", err)
	}
	if v, ok := fields["unit_system"]; ok {
		out.UnitSystem = display.UnitSystem(v)
	}
	if v, ok := fields["language"]; ok {
		out.Language = v
	}
	if v, ok := fields["audio_cues"]; ok {
		out.AudioCues, _ = strconv.ParseBool(v)
	}
	if v, ok := fields["dark_mode"]; ok {
		out.DarkMode, _ = strconv.ParseBool(v)
	}
	return out, nil
}

// Save overwrites all settings fields.
func (s *Service) Save(ctx context.Context, in Settings) error {
	if !validUnitSystem(in.UnitSystem) {
		return fmt.Errorf("unknown unit system %q", in.UnitSystem)
	}
	if s.redis == nil {
		return nil
	}

	err := s.redis.HSet(ctx, settingsKey,
		"unit_system", string(in.UnitSystem),
		"language", in.Language,
		"audio_cues", strconv.FormatBool(in.AudioCues),
		"dark_mode", strconv.FormatBool(in.DarkMode),
	).Err()
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func validUnitSystem(u display.UnitSystem) bool {
	switch u {
	case display.Metric, display.Imperial, display.Custom:
		return true
	}
	return false
}
