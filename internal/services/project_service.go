package services

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"modelforge/internal/models"
	"modelforge/internal/repositories"
	"modelforge/pkg/storage"
)

// DeleteMode controls what happens to a project's images when the project
// itself is deleted.
type DeleteMode string

const (
	// DeleteRetain removes only the project row; image rows and files stay.
	DeleteRetain DeleteMode = "retain"
	// DeleteCascade removes image rows in the same transaction and
	// best-effort deletes their files from disk.
	DeleteCascade DeleteMode = "cascade"
)

// ParseDeleteMode maps a config string to a DeleteMode, defaulting to
// retain for anything unrecognized.
func ParseDeleteMode(s string) DeleteMode {
	if DeleteMode(strings.ToLower(s)) == DeleteCascade {
		return DeleteCascade
	}
	return DeleteRetain
}

// ProjectUpdate carries the partial field set of an update request. Nil
// pointers mean "leave unchanged".
type ProjectUpdate struct {
	Name        *string
	Description *string
	Status      *string
	IsPublic    *bool
}

// ProjectDetail is a project together with its full ordered image list.
type ProjectDetail struct {
	models.Project
	Images []models.ProjectImage `json:"images"`
}

// ProjectService handles business logic for the per-user project lifecycle
// and the public feed.
type ProjectService struct {
	projectRepo repositories.ProjectRepository
	imageRepo   repositories.ImageRepository
	store       *storage.FileStore
	deleteMode  DeleteMode
}

// NewProjectService creates a new ProjectService.
func NewProjectService(projectRepo repositories.ProjectRepository, imageRepo repositories.ImageRepository, store *storage.FileStore, deleteMode DeleteMode) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		imageRepo:   imageRepo,
		store:       store,
		deleteMode:  deleteMode,
	}
}

// ListOwn returns the user's projects, newest first, with thumbnails.
func (s *ProjectService) ListOwn(userID uint) ([]models.ProjectSummary, error) {
	return s.projectRepo.ListByUser(userID)
}

// ListPublic returns the public feed joined with owner display info.
// Unrecognized sort keys or directions fall back to the default ordering
// rather than failing, so the feed is always renderable.
func (s *ProjectService) ListPublic(filter repositories.PublicFilter) ([]models.PublicProject, error) {
	rows, err := s.projectRepo.ListPublic(filter)
	if err != nil {
		return nil, err
	}

	projects := make([]models.PublicProject, 0, len(rows))
	for _, row := range rows {
		owner := models.ProjectOwner{Name: row.UserName}
		if row.UserEmail != nil {
			owner.Email = *row.UserEmail
		}
		projects = append(projects, models.PublicProject{
			ProjectSummary: row,
			User:           owner,
		})
	}
	return projects, nil
}

// Create inserts a new project owned by userID. The name must be non-empty
// after trimming.
func (s *ProjectService) Create(userID uint, name string, description *string, isPublic bool) (*models.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: project name is required", ErrInvalidInput)
	}

	project := &models.Project{
		UserID:      userID,
		Name:        name,
		Description: description,
		IsPublic:    isPublic,
		Status:      models.StatusProcessing,
	}
	if err := s.projectRepo.Create(project); err != nil {
		return nil, err
	}
	return project, nil
}

// Get returns an owned project with its full ordered image list.
func (s *ProjectService) Get(userID, projectID uint) (*ProjectDetail, error) {
	project, err := s.projectRepo.GetOwned(projectID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	images, err := s.imageRepo.ListByProject(projectID)
	if err != nil {
		return nil, err
	}
	return &ProjectDetail{
		Project: *project,
		Images:  images,
	}, nil
}

// Update applies whichever fields of upd are present to an owned project
// and returns the updated record. At least one field must be supplied;
// updated_at is bumped on every update.
func (s *ProjectService) Update(userID, projectID uint, upd ProjectUpdate) (*models.Project, error) {
	fields := map[string]interface{}{}
	if upd.Name != nil {
		fields["name"] = strings.TrimSpace(*upd.Name)
	}
	if upd.Description != nil {
		fields["description"] = upd.Description
	}
	if upd.Status != nil {
		fields["status"] = *upd.Status
	}
	if upd.IsPublic != nil {
		fields["is_public"] = *upd.IsPublic
	}
	if len(fields) == 0 {
		return nil, ErrNoFields
	}

	project, err := s.projectRepo.Update(projectID, userID, fields)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return project, nil
}

// Delete removes an owned project. In cascade mode the image rows go with
// it and their files are removed best-effort; a failed unlink is logged
// and swallowed since the database is the source of truth.
func (s *ProjectService) Delete(userID, projectID uint) error {
	removedFiles, err := s.projectRepo.Delete(projectID, userID, s.deleteMode == DeleteCascade)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	for _, path := range removedFiles {
		if err := s.store.RemovePath(path); err != nil {
			log.Printf("Failed to remove file %s of deleted project %d: %v", path, projectID, err)
		}
	}
	return nil
}
