package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/buildlink/crm-api/internal/models"
	appErrors "github.com/buildlink/crm-api/pkg/errors"
)

type driveRepository interface {
	GetNode(ctx context.Context, id string) (*models.DriveNode, error)
	ListChildren(ctx context.Context, folderID string) ([]models.DriveNode, error)
	GetMembership(ctx context.Context, userID string) (*models.ClientMembership, error)
	ListClientFolders(ctx context.Context, clientID string) ([]models.ClientDriveFolder, error)
	AssignClientFolder(ctx context.Context, folder *models.ClientDriveFolder) error
	RemoveClientFolder(ctx context.Context, clientID, driveFolderID string) error
	SetMembership(ctx context.Context, membership *models.ClientMembership) error
	RemoveMembership(ctx context.Context, userID string) error
}

// AssignFolderRequest grants a client access to a drive folder subtree.
type AssignFolderRequest struct {
	ClientID      string  `json:"client_id" validate:"required"`
	DriveFolderID string  `json:"drive_folder_id" validate:"required"`
	FolderName    *string `json:"folder_name"`
}

// SetMembershipRequest links a portal user to a client.
type SetMembershipRequest struct {
	UserID   string `json:"user_id" validate:"required"`
	ClientID string `json:"client_id" validate:"required"`
}

// DriveService exposes the client document portal. Every read resolves the
// caller's client membership, loads the client's allowed folders and then
// gates each node through the folder ancestry check. No membership or no
// folders means no access, never an error.
type DriveService struct {
	repo      driveRepository
	access    *DriveAccessService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDriveService constructs the drive portal service.
func NewDriveService(repo driveRepository, access *DriveAccessService, validate *validator.Validate, logger *zap.Logger) *DriveService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DriveService{repo: repo, access: access, validator: validate, logger: logger}
}

// ListRootFolders returns the folders directly assigned to the caller's
// client. Admins have no implicit membership here; the portal is scoped to
// client users.
func (s *DriveService) ListRootFolders(ctx context.Context, actor *models.JWTClaims) ([]models.ClientDriveFolder, error) {
	folders, err := s.allowedFolders(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	return folders, nil
}

// BrowseFolder lists the children of a folder the caller may reach.
func (s *DriveService) BrowseFolder(ctx context.Context, actor *models.JWTClaims, folderID string) ([]models.DriveNode, error) {
	allowed, err := s.allowedFolderIDs(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	reachable, err := s.nodeReachable(ctx, folderID, allowed)
	if err != nil {
		return nil, err
	}
	if !reachable {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "folder is not shared with your organisation")
	}
	node, err := s.repo.GetNode(ctx, folderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "folder not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load folder")
	}
	if !node.IsFolder {
		return nil, appErrors.Clone(appErrors.ErrValidation, "node is not a folder")
	}
	children, err := s.repo.ListChildren(ctx, folderID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list folder")
	}
	return children, nil
}

// GetFile returns a file node the caller may reach.
func (s *DriveService) GetFile(ctx context.Context, actor *models.JWTClaims, fileID string) (*models.DriveNode, error) {
	allowed, err := s.allowedFolderIDs(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	ok, err := s.access.IsFileInAllowedFolders(ctx, fileID, allowed)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check file access")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "file is not shared with your organisation")
	}
	node, err := s.repo.GetNode(ctx, fileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "file not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load file")
	}
	return node, nil
}

// AssignFolder shares a drive folder subtree with a client.
func (s *DriveService) AssignFolder(ctx context.Context, actor *models.JWTClaims, req AssignFolderRequest) (*models.ClientDriveFolder, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid folder payload")
	}
	folder := &models.ClientDriveFolder{
		ClientID:      req.ClientID,
		DriveFolderID: req.DriveFolderID,
		FolderName:    req.FolderName,
		CreatedBy:     actor.UserID,
	}
	if err := s.repo.AssignClientFolder(ctx, folder); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign folder")
	}
	return folder, nil
}

// RevokeFolder stops sharing a folder with a client.
func (s *DriveService) RevokeFolder(ctx context.Context, clientID, driveFolderID string) error {
	if err := s.repo.RemoveClientFolder(ctx, clientID, driveFolderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "folder assignment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke folder")
	}
	return nil
}

// SetMembership links a user to a client organisation.
func (s *DriveService) SetMembership(ctx context.Context, req SetMembershipRequest) (*models.ClientMembership, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid membership payload")
	}
	membership := &models.ClientMembership{UserID: req.UserID, ClientID: req.ClientID}
	if err := s.repo.SetMembership(ctx, membership); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to set membership")
	}
	return membership, nil
}

// RemoveMembership unlinks a user from their client organisation.
func (s *DriveService) RemoveMembership(ctx context.Context, userID string) error {
	if err := s.repo.RemoveMembership(ctx, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "membership not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove membership")
	}
	return nil
}

func (s *DriveService) allowedFolders(ctx context.Context, userID string) ([]models.ClientDriveFolder, error) {
	membership, err := s.repo.GetMembership(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []models.ClientDriveFolder{}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve membership")
	}
	folders, err := s.repo.ListClientFolders(ctx, membership.ClientID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list shared folders")
	}
	return folders, nil
}

func (s *DriveService) allowedFolderIDs(ctx context.Context, userID string) ([]string, error) {
	folders, err := s.allowedFolders(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(folders))
	for i, folder := range folders {
		ids[i] = folder.DriveFolderID
	}
	return ids, nil
}

// nodeReachable treats a folder on the allow-list as reachable along with
// everything below any allowed folder.
func (s *DriveService) nodeReachable(ctx context.Context, nodeID string, allowed []string) (bool, error) {
	for _, id := range allowed {
		if id == nodeID {
			return true, nil
		}
	}
	ok, err := s.access.IsFileInAllowedFolders(ctx, nodeID, allowed)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check folder access")
	}
	return ok, nil
}
