// Package demonlistevents defines the topics and payloads the demon list publishes.
package demonlistevents

import (
	"time"

	"github.com/google/uuid"
)

// ChangedV1 is published after every committed mutation. Consumers treat it as a hint
// and reload the whole list; the payload is informational only.
const ChangedV1 = "demonlist.changed.v1"

// ChangedPayloadV1 describes which operation committed.
type ChangedPayloadV1 struct {
	Operation string     `json:"operation"`
	LevelID   *uuid.UUID `json:"level_id,omitempty"`
	Player    string     `json:"player,omitempty"`
	// Moves is the number of levels that changed tier.
	Moves      int       `json:"moves,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
