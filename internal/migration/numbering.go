package migration

import "time"

// Number formats a migration number from a timestamp, in the fixed
// 14-digit UTC form shared with the template's migration tooling.
func Number(t time.Time) string {
	return t.UTC().Format("20060102150405")
}

// NumberWithOffset numbers a migration within a batch. Offset seconds keep
// same-instant emissions strictly ordered.
func NumberWithOffset(base time.Time, offset int) string {
	if base.IsZero() {
		base = time.Now()
	}
	if offset > 0 {
		base = base.Add(time.Duration(offset) * time.Second)
	}
	return Number(base)
}

// Filenames returns the up and down file names for a migration.
func Filenames(number, name string) (up, down string) {
	base := number + "_" + name
	return base + ".up.sql", base + ".down.sql"
}
