package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildlink/crm-api/internal/models"
	appErrors "github.com/buildlink/crm-api/pkg/errors"
)

// driveRepoStub models a small tree: root folder "shared" containing folder
// "plans" containing file "blueprint.pdf", plus an unshared "private" folder.
type driveRepoStub struct {
	nodes       map[string]*models.DriveNode
	parents     map[string][]string
	memberships map[string]*models.ClientMembership
	folders     map[string][]models.ClientDriveFolder
	assigned    []models.ClientDriveFolder
}

func newDriveRepoStub() *driveRepoStub {
	sharedID := "folder-shared"
	plansID := "folder-plans"
	return &driveRepoStub{
		nodes: map[string]*models.DriveNode{
			"folder-shared":  {ID: "folder-shared", Name: "Shared", IsFolder: true},
			"folder-plans":   {ID: "folder-plans", Name: "Plans", IsFolder: true, ParentID: &sharedID},
			"file-blueprint": {ID: "file-blueprint", Name: "blueprint.pdf", ParentID: &plansID},
			"folder-private": {ID: "folder-private", Name: "Private", IsFolder: true},
		},
		parents: map[string][]string{
			"folder-shared":  {},
			"folder-plans":   {"folder-shared"},
			"file-blueprint": {"folder-plans"},
			"folder-private": {},
		},
		memberships: map[string]*models.ClientMembership{
			"member-1": {ID: "m1", UserID: "member-1", ClientID: "client-1"},
		},
		folders: map[string][]models.ClientDriveFolder{
			"client-1": {{ID: "a1", ClientID: "client-1", DriveFolderID: "folder-shared"}},
		},
	}
}

func (s *driveRepoStub) GetParents(ctx context.Context, nodeID string) ([]string, error) {
	parents, ok := s.parents[nodeID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return parents, nil
}

func (s *driveRepoStub) GetNode(ctx context.Context, id string) (*models.DriveNode, error) {
	if node, ok := s.nodes[id]; ok {
		cp := *node
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *driveRepoStub) ListChildren(ctx context.Context, folderID string) ([]models.DriveNode, error) {
	var out []models.DriveNode
	for _, node := range s.nodes {
		if node.ParentID != nil && *node.ParentID == folderID {
			out = append(out, *node)
		}
	}
	return out, nil
}

func (s *driveRepoStub) GetMembership(ctx context.Context, userID string) (*models.ClientMembership, error) {
	if m, ok := s.memberships[userID]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *driveRepoStub) ListClientFolders(ctx context.Context, clientID string) ([]models.ClientDriveFolder, error) {
	return s.folders[clientID], nil
}

func (s *driveRepoStub) AssignClientFolder(ctx context.Context, folder *models.ClientDriveFolder) error {
	s.assigned = append(s.assigned, *folder)
	s.folders[folder.ClientID] = append(s.folders[folder.ClientID], *folder)
	return nil
}

func (s *driveRepoStub) RemoveClientFolder(ctx context.Context, clientID, driveFolderID string) error {
	return nil
}

func (s *driveRepoStub) SetMembership(ctx context.Context, membership *models.ClientMembership) error {
	s.memberships[membership.UserID] = membership
	return nil
}

func (s *driveRepoStub) RemoveMembership(ctx context.Context, userID string) error {
	delete(s.memberships, userID)
	return nil
}

func newDriveFixture() (*DriveService, *driveRepoStub) {
	repo := newDriveRepoStub()
	access := NewDriveAccessService(repo, nil, 0, nil)
	return NewDriveService(repo, access, nil, nil), repo
}

func memberClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "member-1", Role: models.RoleViewer}
}

func TestDriveListRootFoldersForMember(t *testing.T) {
	svc, _ := newDriveFixture()

	folders, err := svc.ListRootFolders(context.Background(), memberClaims())
	require.NoError(t, err)
	require.Len(t, folders, 1)
	assert.Equal(t, "folder-shared", folders[0].DriveFolderID)
}

func TestDriveListRootFoldersNoMembershipIsEmpty(t *testing.T) {
	svc, _ := newDriveFixture()

	folders, err := svc.ListRootFolders(context.Background(), &models.JWTClaims{UserID: "outsider", Role: models.RoleViewer})
	require.NoError(t, err)
	assert.Empty(t, folders)
}

func TestDriveBrowseAllowedFolder(t *testing.T) {
	svc, _ := newDriveFixture()

	children, err := svc.BrowseFolder(context.Background(), memberClaims(), "folder-shared")
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "folder-plans", children[0].ID)
}

func TestDriveBrowseNestedFolderViaAncestry(t *testing.T) {
	svc, _ := newDriveFixture()

	children, err := svc.BrowseFolder(context.Background(), memberClaims(), "folder-plans")
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "file-blueprint", children[0].ID)
}

func TestDriveBrowseUnsharedFolderForbidden(t *testing.T) {
	svc, _ := newDriveFixture()

	_, err := svc.BrowseFolder(context.Background(), memberClaims(), "folder-private")
	require.Error(t, err)
	var apiErr *appErrors.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, apiErr.Code)
}

func TestDriveGetFileInSharedSubtree(t *testing.T) {
	svc, _ := newDriveFixture()

	node, err := svc.GetFile(context.Background(), memberClaims(), "file-blueprint")
	require.NoError(t, err)
	assert.Equal(t, "blueprint.pdf", node.Name)
}

func TestDriveGetFileWithoutMembershipForbidden(t *testing.T) {
	svc, _ := newDriveFixture()

	_, err := svc.GetFile(context.Background(), &models.JWTClaims{UserID: "outsider", Role: models.RoleViewer}, "file-blueprint")
	require.Error(t, err)
	var apiErr *appErrors.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, apiErr.Code)
}

func TestDriveAssignFolderValidation(t *testing.T) {
	svc, _ := newDriveFixture()
	admin := &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}

	_, err := svc.AssignFolder(context.Background(), admin, AssignFolderRequest{ClientID: "client-1"})
	require.Error(t, err)

	assignment, err := svc.AssignFolder(context.Background(), admin, AssignFolderRequest{ClientID: "client-1", DriveFolderID: "folder-private"})
	require.NoError(t, err)
	assert.Equal(t, "folder-private", assignment.DriveFolderID)
	assert.Equal(t, "admin-1", assignment.CreatedBy)
}
