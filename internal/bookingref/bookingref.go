// Package bookingref generates the short human readable booking references
// handed to users, such as CB112-1021M-A1K
package bookingref

import (
	"context"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/navikt/roomfinder/internal/errs"
)

// MaxAttempts bounds how often Generate retries after a collision
const MaxAttempts = 5

var (
	campusRoomPattern = regexp.MustCompile(`^CB\d+\.\d+\.\d+[A-Z]*$`)
	referencePattern  = regexp.MustCompile(`^[A-Z0-9]{3,8}-\d{4}[MAEN]-[A-Z]\d[A-Z]$`)
	nonAlnum          = regexp.MustCompile(`[^A-Z0-9]`)
)

var slotNames = map[byte]string{
	'M': "Morning",
	'A': "Afternoon",
	'E': "Evening",
	'N': "Night",
}

// ExistsFunc reports whether a reference is already taken
type ExistsFunc func(ctx context.Context, ref string) (bool, error)

// Generator builds booking references. It is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewGenerator returns a generator seeded from the runtime's random source
func NewGenerator() *Generator {
	return &Generator{rnd: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// NewSeededGenerator returns a deterministic generator for tests
func NewSeededGenerator(seed1, seed2 uint64) *Generator {
	return &Generator{rnd: rand.New(rand.NewPCG(seed1, seed2))}
}

// New builds one reference for a booking of roomName starting at start by user
func (g *Generator) New(roomName string, start time.Time, user string) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	return fmt.Sprintf("%s-%s%c-%c%c%c",
		g.roomCode(roomName),
		start.Format("0102"),
		Slot(start.Hour()),
		Initial(user),
		'0'+byte(g.rnd.IntN(10)),
		'A'+byte(g.rnd.IntN(26)),
	)
}

// Generate builds a reference that exists does not report as taken
func (g *Generator) Generate(ctx context.Context, roomName string, start time.Time, user string, exists ExistsFunc) (string, error) {
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		ref := g.New(roomName, start, user)
		if exists == nil {
			return ref, nil
		}
		taken, err := exists(ctx, ref)
		if err != nil {
			return "", errs.Wrap(err, "checking booking reference")
		}
		if !taken {
			return ref, nil
		}
	}
	return "", errs.Newf("no free booking reference after %d attempts", MaxAttempts)
}

// roomCode abbreviates a room name, "CB06.06.112" -> "CB112". Caller holds g.mu.
func (g *Generator) roomCode(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Sprintf("RM%02d", g.rnd.IntN(99))
	}
	if campusRoomPattern.MatchString(name) {
		parts := strings.Split(name, ".")
		num := strings.TrimLeft(parts[2], "0")
		if num == "" {
			num = "0"
		}
		return parts[0][:2] + num
	}

	code := name
	if len(code) > 6 {
		code = code[:6]
	}
	code = nonAlnum.ReplaceAllString(strings.ToUpper(code), "")
	if len(code) < 3 {
		code = "RM" + code
	}
	if len(code) < 3 {
		code += "0"
	}
	return code
}

// Slot returns the part-of-day letter for an hour
func Slot(hour int) byte {
	switch {
	case hour >= 6 && hour < 12:
		return 'M'
	case hour >= 12 && hour < 18:
		return 'A'
	case hour >= 18 && hour < 22:
		return 'E'
	default:
		return 'N'
	}
}

// Initial returns the upper-case first letter of the user's first name, or U
func Initial(fullName string) byte {
	fields := strings.Fields(fullName)
	if len(fields) == 0 {
		return 'U'
	}
	c := strings.ToUpper(fields[0])[0]
	if c < 'A' || c > 'Z' {
		return 'U'
	}
	return c
}

// Valid reports whether ref has the booking reference shape
func Valid(ref string) bool {
	return referencePattern.MatchString(ref)
}

// Display renders a reference with its decoded date, slot and user initial.
// Malformed references are returned unchanged.
func Display(ref string) string {
	if !Valid(ref) {
		return ref
	}
	parts := strings.Split(ref, "-")
	dateSlot, suffix := parts[1], parts[2]
	return fmt.Sprintf("%s (%s/%s %s, User %c)",
		ref, dateSlot[:2], dateSlot[2:4], slotNames[dateSlot[4]], suffix[0])
}
