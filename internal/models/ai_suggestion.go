package models

import (
	"time"

	"gorm.io/datatypes"
)

// AISuggestion stores one generated advisory response together with the
// context blob it was produced from.
type AISuggestion struct {
	ID       uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	Kind     string         `gorm:"type:varchar(20);not null;index" json:"kind"`
	Question string         `gorm:"type:text" json:"question"`
	Response string         `gorm:"type:text;not null" json:"response"`
	Context  datatypes.JSON `gorm:"type:jsonb" json:"context,omitempty"`
	Model    string         `gorm:"type:varchar(50)" json:"model"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index" json:"created_at"`
}

func (AISuggestion) TableName() string {
	return "ai_suggestions"
}
