package models

// Platform names as reported by the Blacklight backend.
const (
	PlatformMonster   = "monster"
	PlatformDice      = "dice"
	PlatformTechFetch = "techfetch"
	PlatformLinkedIn  = "linkedin"
	PlatformGlassdoor = "glassdoor"
)

// Role describes the role half of a queue item.
type Role struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Aliases  []string `json:"aliases,omitempty"`
	Category string   `json:"category,omitempty"`
}

// PlatformSpec names one platform to scrape and whether it needs an
// authenticated credential.
type PlatformSpec struct {
	Name               string `json:"name"`
	RequiresCredential bool   `json:"requires_credential"`
}

// QueueItem is one role+location unit of work fetched from the backend.
// Immutable once fetched; consumed by exactly one orchestrator run.
type QueueItem struct {
	SessionID string         `json:"session_id"`
	Role      Role           `json:"role"`
	Location  string         `json:"location"`
	Platforms []PlatformSpec `json:"platforms"`
}
