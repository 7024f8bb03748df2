package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type parentProviderStub struct {
	parents map[string][]string
	calls   int
}

func (p *parentProviderStub) GetParents(ctx context.Context, nodeID string) ([]string, error) {
	p.calls++
	if parents, ok := p.parents[nodeID]; ok {
		return parents, nil
	}
	return []string{}, nil
}

func TestIsFileInAllowedFoldersDirectParent(t *testing.T) {
	provider := &parentProviderStub{parents: map[string][]string{
		"file-1": {"folder-a"},
	}}
	svc := NewDriveAccessService(provider, nil, 0, nil)

	ok, err := svc.IsFileInAllowedFolders(context.Background(), "file-1", []string{"folder-a"})
	require.NoError(t, err)
	require.True(t, ok)
}

func TestIsFileInAllowedFoldersDeepAncestor(t *testing.T) {
	provider := &parentProviderStub{parents: map[string][]string{
		"file-1":   {"folder-c"},
		"folder-c": {"folder-b"},
		"folder-b": {"folder-a"},
	}}
	svc := NewDriveAccessService(provider, nil, 0, nil)

	ok, err := svc.IsFileInAllowedFolders(context.Background(), "file-1", []string{"folder-a"})
	require.NoError(t, err)
	require.True(t, ok)
}

func TestIsFileInAllowedFoldersDeniesByDefault(t *testing.T) {
	provider := &parentProviderStub{parents: map[string][]string{
		"file-1": {"folder-x"},
	}}
	svc := NewDriveAccessService(provider, nil, 0, nil)

	ok, err := svc.IsFileInAllowedFolders(context.Background(), "file-1", []string{"folder-a"})
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = svc.IsFileInAllowedFolders(context.Background(), "file-1", nil)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = svc.IsFileInAllowedFolders(context.Background(), "", []string{"folder-a"})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestIsFileInAllowedFoldersTerminatesOnCycle(t *testing.T) {
	provider := &parentProviderStub{parents: map[string][]string{
		"file-1":   {"folder-b"},
		"folder-b": {"folder-c"},
		"folder-c": {"folder-b", "file-1"},
	}}
	svc := NewDriveAccessService(provider, nil, 0, nil)

	ok, err := svc.IsFileInAllowedFolders(context.Background(), "file-1", []string{"folder-a"})
	require.NoError(t, err)
	require.False(t, ok)
	require.LessOrEqual(t, provider.calls, 3)
}

func TestIsFileInAllowedFoldersDiamondGraph(t *testing.T) {
	provider := &parentProviderStub{parents: map[string][]string{
		"file-1":   {"folder-b", "folder-c"},
		"folder-b": {"folder-a"},
		"folder-c": {"folder-a"},
	}}
	svc := NewDriveAccessService(provider, nil, 0, nil)

	ok, err := svc.IsFileInAllowedFolders(context.Background(), "file-1", []string{"folder-a"})
	require.NoError(t, err)
	require.True(t, ok)
}

type failingParentProvider struct{}

func (failingParentProvider) GetParents(ctx context.Context, nodeID string) ([]string, error) {
	return nil, errors.New("metadata unavailable")
}

func TestIsFileInAllowedFoldersPropagatesProviderError(t *testing.T) {
	svc := NewDriveAccessService(failingParentProvider{}, nil, 0, nil)

	_, err := svc.IsFileInAllowedFolders(context.Background(), "file-1", []string{"folder-a"})
	require.Error(t, err)
}
