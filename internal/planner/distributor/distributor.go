// Package distributor splits verified places into per-day buckets.
package distributor

const (
	MinPerDay = 2
	MaxPerDay = 4
)

// Capacity is the per-day bucket size for n items over days days:
// ceil(n/days) clamped to [MinPerDay, MaxPerDay]. When n exceeds
// MaxPerDay*days the clamp would drop items, so ceil(n/days) is used.
func Capacity(n, days int) int {
	if days < 1 {
		return 0
	}
	c := (n + days - 1) / days
	if c > MaxPerDay {
		return c
	}
	if c < MinPerDay {
		return MinPerDay
	}
	return c
}

// Overflows reports whether n items cannot fit in days buckets of MaxPerDay.
func Overflows(n, days int) bool {
	return n > MaxPerDay*days
}

// Distribute fills days buckets in order, moving to the next day once the
// current one holds Capacity items. Concatenating the buckets yields items
// unchanged; every bucket is non-nil.
func Distribute[T any](items []T, days int) [][]T {
	if days < 1 {
		return nil
	}
	buckets := make([][]T, days)
	for i := range buckets {
		buckets[i] = []T{}
	}

	capacity := Capacity(len(items), days)
	day := 0
	for _, item := range items {
		if len(buckets[day]) >= capacity && day < days-1 {
			day++
		}
		buckets[day] = append(buckets[day], item)
	}
	return buckets
}
