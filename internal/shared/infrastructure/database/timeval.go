package database

import (
	"fmt"
	"time"
)

// sqliteTimeLayout is fixed-width so that text comparison in SQLite orders
// timestamps chronologically.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

var parseLayouts = []string{
	sqliteTimeLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// TimeArg converts t into a query argument for the driver. PostgreSQL takes
// time.Time natively; SQLite stores UTC text.
func TimeArg(driver Driver, t time.Time) any {
	if driver == DriverSQLite {
		return t.UTC().Format(sqliteTimeLayout)
	}
	return t.UTC()
}

// NullTimeArg is TimeArg for optional timestamps.
func NullTimeArg(driver Driver, t *time.Time) any {
	if t == nil {
		return nil
	}
	return TimeArg(driver, *t)
}

// NullTime scans a nullable timestamp from either driver.
type NullTime struct {
	Time  time.Time
	Valid bool
}

// Scan implements sql.Scanner.
func (n *NullTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		n.Time, n.Valid = time.Time{}, false
		return nil
	case time.Time:
		n.Time, n.Valid = v.UTC(), true
		return nil
	case string:
		return n.parse(v)
	case []byte:
		return n.parse(string(v))
	default:
		return fmt.Errorf("cannot scan %T into NullTime", src)
	}
}

// Ptr returns the time or nil when the column was NULL.
func (n NullTime) Ptr() *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time
	return &t
}

func (n *NullTime) parse(s string) error {
	for _, layout := range parseLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			n.Time, n.Valid = t.UTC(), true
			return nil
		}
	}
	return fmt.Errorf("cannot parse %q as timestamp", s)
}
