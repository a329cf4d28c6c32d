package domain

import "time"

// HistoryEntry records one applied update in the audit trail. Raw
// preserves the block text exactly as the agent emitted it.
type HistoryEntry struct {
	ID        string    `yaml:"id" json:"id"`
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
	Type      string    `yaml:"type" json:"type"`
	Data      Update    `yaml:"data" json:"data"`
	Raw       string    `yaml:"raw,omitempty" json:"raw,omitempty"`
}
