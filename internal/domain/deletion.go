package domain

import (
	"encoding/json"
	"time"
)

// DeletionRecord documents one confirmed, successful deletion.
type DeletionRecord struct {
	ID        string          `json:"id"`
	ItemType  ItemType        `json:"item_type"`
	ItemID    string          `json:"item_id"`
	Email     string          `json:"email"`
	DeletedAt time.Time       `json:"deleted_at"`
	Response  json.RawMessage `json:"response,omitempty"`
}
