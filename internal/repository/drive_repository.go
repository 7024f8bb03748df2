package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/buildlink/crm-api/internal/models"
)

// DriveRepository reads the mirrored drive metadata and the client folder
// assignments that scope what portal users may browse.
type DriveRepository struct {
	db *sqlx.DB
}

// NewDriveRepository constructs the repository.
func NewDriveRepository(db *sqlx.DB) *DriveRepository {
	return &DriveRepository{db: db}
}

// GetParents returns the parent folder IDs of a drive node. A root node
// yields an empty slice; an unknown node yields sql.ErrNoRows.
func (r *DriveRepository) GetParents(ctx context.Context, nodeID string) ([]string, error) {
	var parentID *string
	err := r.db.GetContext(ctx, &parentID, `SELECT parent_id FROM drive_nodes WHERE id = $1`, nodeID)
	if err != nil {
		return nil, err
	}
	if parentID == nil {
		return []string{}, nil
	}
	return []string{*parentID}, nil
}

// GetNode fetches a single drive node.
func (r *DriveRepository) GetNode(ctx context.Context, id string) (*models.DriveNode, error) {
	const query = `SELECT id, name, is_folder, parent_id, mime_type, size_bytes, updated_at
	FROM drive_nodes WHERE id = $1`
	var node models.DriveNode
	if err := r.db.GetContext(ctx, &node, query, id); err != nil {
		return nil, err
	}
	return &node, nil
}

// ListChildren returns the direct children of a folder, folders first.
func (r *DriveRepository) ListChildren(ctx context.Context, folderID string) ([]models.DriveNode, error) {
	const query = `SELECT id, name, is_folder, parent_id, mime_type, size_bytes, updated_at
	FROM drive_nodes WHERE parent_id = $1 ORDER BY is_folder DESC, name ASC`
	var nodes []models.DriveNode
	if err := r.db.SelectContext(ctx, &nodes, query, folderID); err != nil {
		return nil, fmt.Errorf("list drive children: %w", err)
	}
	return nodes, nil
}

// GetMembership resolves the client a portal user belongs to. Users without
// a membership get sql.ErrNoRows.
func (r *DriveRepository) GetMembership(ctx context.Context, userID string) (*models.ClientMembership, error) {
	const query = `SELECT id, user_id, client_id, created_at
	FROM client_memberships WHERE user_id = $1`
	var membership models.ClientMembership
	if err := r.db.GetContext(ctx, &membership, query, userID); err != nil {
		return nil, err
	}
	return &membership, nil
}

// ListClientFolders returns the drive folders assigned to a client.
func (r *DriveRepository) ListClientFolders(ctx context.Context, clientID string) ([]models.ClientDriveFolder, error) {
	const query = `SELECT id, client_id, drive_folder_id, folder_name, created_by, created_at
	FROM client_drive_folders WHERE client_id = $1 ORDER BY created_at ASC`
	var folders []models.ClientDriveFolder
	if err := r.db.SelectContext(ctx, &folders, query, clientID); err != nil {
		return nil, fmt.Errorf("list client folders: %w", err)
	}
	return folders, nil
}

// AssignClientFolder grants a client access to a drive folder subtree.
func (r *DriveRepository) AssignClientFolder(ctx context.Context, folder *models.ClientDriveFolder) error {
	if folder.ID == "" {
		folder.ID = uuid.NewString()
	}
	if folder.CreatedAt.IsZero() {
		folder.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO client_drive_folders (id, client_id, drive_folder_id, folder_name, created_by, created_at)
	VALUES (:id, :client_id, :drive_folder_id, :folder_name, :created_by, :created_at)
	ON CONFLICT (client_id, drive_folder_id) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, folder); err != nil {
		return fmt.Errorf("assign client folder: %w", err)
	}
	return nil
}

// RemoveClientFolder revokes a client folder assignment.
func (r *DriveRepository) RemoveClientFolder(ctx context.Context, clientID, driveFolderID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM client_drive_folders WHERE client_id = $1 AND drive_folder_id = $2`,
		clientID, driveFolderID)
	if err != nil {
		return fmt.Errorf("remove client folder: %w", err)
	}
	return requireRowsAffected(result, "remove client folder")
}

// SetMembership upserts a user's client membership.
func (r *DriveRepository) SetMembership(ctx context.Context, membership *models.ClientMembership) error {
	if membership.ID == "" {
		membership.ID = uuid.NewString()
	}
	if membership.CreatedAt.IsZero() {
		membership.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO client_memberships (id, user_id, client_id, created_at)
	VALUES (:id, :user_id, :client_id, :created_at)
	ON CONFLICT (user_id) DO UPDATE SET client_id = EXCLUDED.client_id`
	if _, err := r.db.NamedExecContext(ctx, query, membership); err != nil {
		return fmt.Errorf("set client membership: %w", err)
	}
	return nil
}

// RemoveMembership deletes a user's client membership if present.
func (r *DriveRepository) RemoveMembership(ctx context.Context, userID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM client_memberships WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("remove client membership: %w", err)
	}
	return requireRowsAffected(result, "remove client membership")
}
