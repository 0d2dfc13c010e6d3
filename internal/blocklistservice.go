package internal

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"

	"github.com/derWhity/turntable/internal/models"
	"github.com/derWhity/turntable/internal/repos"
)

// BlocklistService manages the per-DJ block patterns that are matched against incoming submissions
type BlocklistService interface {
	// Create adds a new pattern to the logged-in DJ's block list
	Create(ctx context.Context, pattern string) (*models.BlockListEntry, error)
	// List returns all block list entries of the logged-in DJ
	List(ctx context.Context) ([]models.BlockListEntry, error)
	// Delete removes an entry from the logged-in DJ's block list
	Delete(ctx context.Context, id string) error
}

// -- BlocklistService implementation ----------------------------------------------------------------------------------

type blocklistService struct {
	repo   repos.BlocklistRepo
	logger *logrus.Entry
}

// NewBlocklistService creates a new block list service instance
func NewBlocklistService(repo repos.BlocklistRepo, logger *logrus.Entry) BlocklistService {
	return &blocklistService{
		repo:   repo,
		logger: logger,
	}
}

// Create adds a new pattern to the logged-in DJ's block list
func (s *blocklistService) Create(ctx context.Context, pattern string) (*models.BlockListEntry, error) {
	dj, err := loggedInDJ(ctx)
	if err != nil {
		return nil, err
	}
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return nil, MakeErrorWithData(http.StatusBadRequest, ErrCodeRequiredFieldMissing,
			"Block pattern missing", map[string]string{"field": "pattern"})
	}
	entry := &models.BlockListEntry{
		ID:      uuid.New().String(),
		DJID:    dj.ID,
		Pattern: pattern,
	}
	if err := s.repo.Create(entry); err != nil {
		return nil, MakeErrorWithData(http.StatusInternalServerError, ErrCodeRepoError,
			"Error while storing the block list entry", err.Error())
	}
	return entry, nil
}

// List returns all block list entries of the logged-in DJ
func (s *blocklistService) List(ctx context.Context) ([]models.BlockListEntry, error) {
	dj, err := loggedInDJ(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := s.repo.ListByDJ(dj.ID)
	if err != nil {
		return nil, MakeErrorWithData(http.StatusInternalServerError, ErrCodeRepoError,
			"Error while listing the block list", err.Error())
	}
	return entries, nil
}

// Delete removes an entry from the logged-in DJ's block list
func (s *blocklistService) Delete(ctx context.Context, id string) error {
	dj, err := loggedInDJ(ctx)
	if err != nil {
		return err
	}
	entry, err := s.repo.GetByID(id)
	if err != nil {
		if err == repos.ErrEntityNotExisting {
			return MakeError(http.StatusNotFound, ErrCodeBlocklistEntryNotFound,
				fmt.Sprintf("Block list entry '%s' does not exist", id))
		}
		return MakeErrorWithData(http.StatusInternalServerError, ErrCodeRepoError,
			"Error while loading the block list entry", err.Error())
	}
	if entry.DJID != dj.ID {
		return MakeError(http.StatusForbidden, ErrCodeNotAuthorized,
			"This block list entry belongs to another DJ")
	}
	if err := s.repo.Delete(id); err != nil {
		return MakeErrorWithData(http.StatusInternalServerError, ErrCodeRepoError,
			"Error while deleting the block list entry", err.Error())
	}
	return nil
}
