package models

// BaseModel provides the serial primary key of entity tables.
// A zero ID is omitted on insert so the store's sequence assigns it.
type BaseModel struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id,omitempty"`
}
