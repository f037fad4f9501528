package timezone

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	// Embedded IANA database so zone rules resolve even on hosts without /usr/share/zoneinfo.
	_ "time/tzdata"
)

const (
	// BaseZone is the zone every class instant is displayed in unless the caller asks otherwise.
	BaseZone = "Asia/Kolkata"

	maxOffsetMinutes = 14 * 60
)

var ErrUnknownZone = errors.New("unknown timezone")

type UnknownZoneError struct {
	Zone string
}

func (e *UnknownZoneError) Error() string {
	return fmt.Sprintf("unknown timezone: %q", e.Zone)
}

func (e *UnknownZoneError) Is(target error) bool {
	return target == ErrUnknownZone
}

// Accepts "+05:30", "-0300", "+9", "UTC+5:30", "GMT-03:00".
var offsetPattern = regexp.MustCompile(`^(?i:UTC|GMT)?([+-])(\d{1,2})(?::?([0-5]\d))?$`)

// Converter maps absolute instants into display zones. Resolved locations are
// cached; conversion itself never mutates state.
type Converter struct {
	base     *time.Location
	baseName string

	mu    sync.RWMutex
	cache map[string]*time.Location
}

func NewConverter(base string) (*Converter, error) {
	if strings.TrimSpace(base) == "" {
		base = BaseZone
	}
	c := &Converter{cache: make(map[string]*time.Location)}
	loc, err := c.Location(base)
	if err != nil {
		return nil, err
	}
	c.base = loc
	c.baseName = strings.TrimSpace(base)
	return c, nil
}

// Location resolves an IANA name, UTC alias or explicit UTC offset.
func (c *Converter) Location(zone string) (*time.Location, error) {
	name := strings.TrimSpace(zone)

	c.mu.RLock()
	loc, ok := c.cache[name]
	c.mu.RUnlock()
	if ok {
		return loc, nil
	}

	loc, err := resolve(name)
	if err != nil {
		return nil, &UnknownZoneError{Zone: zone}
	}

	c.mu.Lock()
	c.cache[name] = loc
	c.mu.Unlock()
	return loc, nil
}

// ToZone keeps the absolute instant and only changes the location used for display.
func (c *Converter) ToZone(instant time.Time, zone string) (time.Time, error) {
	loc, err := c.Location(zone)
	if err != nil {
		return time.Time{}, err
	}
	return instant.In(loc), nil
}

func (c *Converter) ToBase(instant time.Time) time.Time {
	return instant.In(c.base)
}

func (c *Converter) Base() *time.Location {
	return c.base
}

func (c *Converter) BaseName() string {
	return c.baseName
}

func resolve(name string) (*time.Location, error) {
	switch strings.ToUpper(name) {
	case "", "LOCAL":
		// "Local" would leak the host zone into responses.
		return nil, ErrUnknownZone
	case "UTC", "Z", "GMT":
		return time.UTC, nil
	}

	if m := offsetPattern.FindStringSubmatch(name); m != nil {
		return fixedOffset(m)
	}

	return time.LoadLocation(name)
}

func fixedOffset(m []string) (*time.Location, error) {
	hours, err := strconv.Atoi(m[2])
	if err != nil {
		return nil, err
	}
	minutes := 0
	if m[3] != "" {
		if minutes, err = strconv.Atoi(m[3]); err != nil {
			return nil, err
		}
	}

	total := hours*60 + minutes
	if total > maxOffsetMinutes {
		return nil, ErrUnknownZone
	}
	if m[1] == "-" {
		total = -total
	}
	return time.FixedZone(offsetName(total), total*60), nil
}

func offsetName(totalMinutes int) string {
	sign := '+'
	if totalMinutes < 0 {
		sign = '-'
		totalMinutes = -totalMinutes
	}
	return fmt.Sprintf("UTC%c%02d:%02d", sign, totalMinutes/60, totalMinutes%60)
}
