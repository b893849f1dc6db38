package panels

import (
	"time"

	"github.com/ziadkadry99/textpanel/internal/content"
)

// Panel is a persisted text panel.
type Panel struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Options   content.Options `json:"options"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
