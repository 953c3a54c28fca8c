package models

import "time"

const (
	AgentStatusRunning = "running"
	AgentStatusStopped = "stopped"
)

// Agent is a registered conversational agent. The character definition is
// stored as raw JSON so the registry stays agnostic to character schema churn.
type Agent struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	Name      string    `gorm:"index;not null" json:"name"`
	Character string    `gorm:"type:jsonb" json:"-"` // full character JSON
	Clients   string    `json:"clients"`             // comma-separated client names
	Status    string    `gorm:"index" json:"status"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
