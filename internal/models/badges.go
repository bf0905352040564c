package models

// Badge is an achievement the backend awards; the portal only knows how to display it.
type Badge struct {
	Key         string
	Name        string
	Description string
	Emoji       string
}

var Badges = map[string]Badge{
	"WELCOME_BOUNTY": {
		Key:         "WELCOME_BOUNTY",
		Name:        "Welcome Bounty",
		Description: "Congrats on joining TaskBounty! Your adventure starts here.",
		Emoji:       "🎉",
	},
	"STREAK_MASTER": {
		Key:         "STREAK_MASTER",
		Name:        "Streak Master",
		Description: "30 days of dedication! You're a TaskBounty regular.",
		Emoji:       "🔥",
	},
	"PREMIUM_POSTER": {
		Key:         "PREMIUM_POSTER",
		Name:        "Premium Poster",
		Description: "Premium Poster status! Unlock unlimited task postings.",
		Emoji:       "👑",
	},
	"BOUNTY_CHAMPION": {
		Key:         "BOUNTY_CHAMPION",
		Name:        "Bounty Champion",
		Description: "25 tasks conquered! You're a true TaskBounty hero.",
		Emoji:       "✅",
	},
}

// ResolveBadges maps earned keys to displayable badges, skipping unknown keys.
func ResolveBadges(keys []string) []Badge {
	out := make([]Badge, 0, len(keys))
	for _, k := range keys {
		if b, ok := Badges[k]; ok {
			out = append(out, b)
		}
	}
	return out
}
