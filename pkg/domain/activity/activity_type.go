package activity

import "strings"

// Category is a leaderboard activity category.
type Category string

const (
	CategoryCycling Category = "cycling"
	CategoryRunning Category = "running"
)

// Categories lists the leaderboard categories in display order.
var Categories = []Category{CategoryCycling, CategoryRunning}

// Strava activity type names that feed a category.
const (
	StravaTypeRide = "Ride"
	StravaTypeRun  = "Run"
)

// CategoryForStravaType maps a Strava activity type to its leaderboard
// category. The match is exact; any other type (including VirtualRide,
// TrailRun or lowercase spellings) is not counted.
func CategoryForStravaType(stravaType string) (Category, bool) {
	switch stravaType {
	case StravaTypeRide:
		return CategoryCycling, true
	case StravaTypeRun:
		return CategoryRunning, true
	}
	return "", false
}

// ParseCategory accepts a category name or one of its friendly aliases.
func ParseCategory(input string) (Category, bool) {
	friendly := map[string]Category{
		"cycling": CategoryCycling,
		"ride":    CategoryCycling,
		"rides":   CategoryCycling,
		"bike":    CategoryCycling,
		"running": CategoryRunning,
		"run":     CategoryRunning,
		"runs":    CategoryRunning,
	}
	c, ok := friendly[strings.ToLower(strings.TrimSpace(input))]
	return c, ok
}

// Title returns the capitalised category name ("Cycling").
func (c Category) Title() string {
	if c == "" {
		return ""
	}
	return strings.ToUpper(string(c[:1])) + string(c[1:])
}

// CountLabel returns the heading of the count column for the category.
func (c Category) CountLabel() string {
	if c == CategoryCycling {
		return "Rides"
	}
	return "Runs"
}
