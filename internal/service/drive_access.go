package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// FolderMetadataProvider resolves the direct parents of a drive node. The
// provider may be remote; results are cached with a short TTL.
type FolderMetadataProvider interface {
	GetParents(ctx context.Context, nodeID string) ([]string, error)
}

// DriveAccessService answers whether a file is reachable from a set of
// allowed folders. The parent graph is externally managed and may contain
// cycles or diamonds, so traversal tracks visited nodes.
type DriveAccessService struct {
	provider FolderMetadataProvider
	cache    *CacheService
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewDriveAccessService constructs the service. cache may be nil.
func NewDriveAccessService(provider FolderMetadataProvider, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *DriveAccessService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DriveAccessService{provider: provider, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// IsFileInAllowedFolders reports whether any ancestor folder of the file is
// in the allow-list. Exhausting the reachable ancestor set without a match
// denies access.
func (s *DriveAccessService) IsFileInAllowedFolders(ctx context.Context, fileID string, allowedFolderIDs []string) (bool, error) {
	if fileID == "" || len(allowedFolderIDs) == 0 {
		return false, nil
	}
	allowed := make(map[string]struct{}, len(allowedFolderIDs))
	for _, id := range allowedFolderIDs {
		allowed[id] = struct{}{}
	}

	ancestors, err := s.ancestorChain(ctx, fileID)
	if err != nil {
		return false, err
	}
	for _, id := range ancestors {
		if _, ok := allowed[id]; ok {
			return true, nil
		}
	}
	return false, nil
}

// ancestorChain resolves the transitive closure of parent folders, consulting
// the cache first. The visited set is the loop guard: a malformed graph with
// a cycle back to the file still terminates.
func (s *DriveAccessService) ancestorChain(ctx context.Context, fileID string) ([]string, error) {
	cacheKey := fmt.Sprintf("drive:parents:%s", fileID)
	var cached []string
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err != nil {
			s.logger.Warn("drive parent cache read failed", zap.String("file_id", fileID), zap.Error(err))
		} else if hit {
			return cached, nil
		}
	}

	visited := make(map[string]struct{})
	toVisit := []string{fileID}
	ancestors := make([]string, 0, 8)

	for len(toVisit) > 0 {
		current := toVisit[len(toVisit)-1]
		toVisit = toVisit[:len(toVisit)-1]
		if _, seen := visited[current]; seen {
			continue
		}
		visited[current] = struct{}{}

		parents, err := s.provider.GetParents(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("resolve parents of %s: %w", current, err)
		}
		for _, parentID := range parents {
			if _, seen := visited[parentID]; !seen {
				ancestors = append(ancestors, parentID)
				toVisit = append(toVisit, parentID)
			}
		}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, ancestors, s.cacheTTL); err != nil {
			s.logger.Warn("drive parent cache write failed", zap.String("file_id", fileID), zap.Error(err))
		}
	}
	return ancestors, nil
}
