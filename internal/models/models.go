package models

import "time"

// StoredFile is the record of an accepted upload. ID is the only lookup key.
type StoredFile struct {
	ID               string    `json:"id"`
	OriginalFilename string    `json:"filename"`
	StoredName       string    `json:"storedName"`
	StoragePath      string    `json:"path"`
	SizeBytes        int64     `json:"size"`
	MimeType         string    `json:"mimetype"`
	UploadedAt       time.Time `json:"uploadTime"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
