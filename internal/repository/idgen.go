package repository

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
)

// IDGenerator proposes clinic ids. Proposals may collide; the store checks
// each candidate against existing rows before using it.
type IDGenerator interface {
	Next(now time.Time) string
}

// YearRandom yields CL + four-digit year + five-digit random suffix,
// e.g. CL202400042.
type YearRandom struct{}

func (YearRandom) Next(now time.Time) string {
	return fmt.Sprintf("CL%04d%05d", now.Year(), rand.IntN(100000))
}

// UUIDGenerator yields CL followed by a random UUID without dashes.
type UUIDGenerator struct{}

func (UUIDGenerator) Next(time.Time) string {
	return "CL" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// NewIDGenerator maps a configured scheme name to a generator.
func NewIDGenerator(scheme string) (IDGenerator, error) {
	switch strings.ToLower(scheme) {
	case "", "year":
		return YearRandom{}, nil
	case "uuid":
		return UUIDGenerator{}, nil
	default:
		return nil, fmt.Errorf("unknown clinic id scheme %q", scheme)
	}
}
