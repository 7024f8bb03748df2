package models

import "time"

// ClientMembership links a portal user to the client organisation they belong to.
type ClientMembership struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	ClientID  string    `db:"client_id" json:"client_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ClientDriveFolder maps a client to a drive folder its members may browse.
type ClientDriveFolder struct {
	ID            string    `db:"id" json:"id"`
	ClientID      string    `db:"client_id" json:"client_id"`
	DriveFolderID string    `db:"drive_folder_id" json:"drive_folder_id"`
	FolderName    *string   `db:"folder_name" json:"folder_name,omitempty"`
	CreatedBy     string    `db:"created_by" json:"created_by"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// DriveNode is a folder or file record in the mirrored drive metadata table.
// ParentID is nil for roots. The parent graph is externally managed and may
// be malformed, so traversals must guard against cycles.
type DriveNode struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	IsFolder  bool      `db:"is_folder" json:"is_folder"`
	ParentID  *string   `db:"parent_id" json:"parent_id,omitempty"`
	MimeType  *string   `db:"mime_type" json:"mime_type,omitempty"`
	SizeBytes *int64    `db:"size_bytes" json:"size_bytes,omitempty"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
