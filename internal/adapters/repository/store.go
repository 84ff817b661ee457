// Package repository persists athlete profiles.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/okian/palmares/internal/domain/model"
)

// Drivers accepted by Open.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Store provides read/write access to athlete profiles. Implementations
// return copies; callers may mutate what they get.
type Store interface {
	// Get returns ErrNotFound if the athlete has no profile.
	Get(ctx context.Context, athleteID string) (*model.Profile, error)
	// Put replaces the athlete's profile.
	Put(ctx context.Context, p *model.Profile) error
	// IDs lists stored athlete IDs in ascending order.
	IDs(ctx context.Context) ([]string, error)
	// Count returns the number of stored profiles.
	Count(ctx context.Context) int
	Close() error
}

// Open returns the store for driver: "memory" or "sqlite".
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverMemory:
		return NewMemoryStore(), nil
	case DriverSQLite:
		s, err := NewSQLite(dsn)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

func validate(p *model.Profile) error {
	if p == nil || strings.TrimSpace(p.AthleteID) == "" {
		return ErrInvalidProfile
	}
	return nil
}

func encode(p *model.Profile) ([]byte, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode profile %s: %w", p.AthleteID, err)
	}
	return b, nil
}

func decode(b []byte) (*model.Profile, error) {
	p := model.NewProfile("")
	if err := json.Unmarshal(b, p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return p, nil
}
