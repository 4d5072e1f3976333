package db

import "time"

// FolderRecord is the cached copy of a folder owned by the server.
type FolderRecord struct {
	ID       int    `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"index" json:"name"`
	SyncedAt time.Time
}

// TableName keeps the table name stable regardless of the struct name.
func (FolderRecord) TableName() string { return "folders" }

// CardRecord is the cached copy of a card. Cards are cached only after the
// folder detail has been fetched.
type CardRecord struct {
	ID          int    `gorm:"primaryKey" json:"id"`
	FolderID    int    `gorm:"index" json:"folder_id"`
	FilePath    string `json:"file_path"`
	Description string `json:"description"`
}

// TableName keeps the table name stable regardless of the struct name.
func (CardRecord) TableName() string { return "cards" }
