package service

import "time"

// ParsePeriod maps a stats period token to its duration. Unknown tokens fall
// back to 24h, matching the default period.
func ParsePeriod(period string) time.Duration {
	switch period {
	case "1h":
		return time.Hour
	case "6h":
		return 6 * time.Hour
	case "24h":
		return 24 * time.Hour
	case "7d":
		return 7 * 24 * time.Hour
	case "30d":
		return 30 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}
