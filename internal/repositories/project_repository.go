package repositories

import "modelforge/internal/models"

// DefaultThumbnail is returned for projects that have no images yet.
const DefaultThumbnail = "default-thumbnail.jpg"

// PublicFilter narrows and orders the public project feed. Zero values mean
// "no search, default sort": unrecognized Sort/Order values fall back to
// created_at desc instead of erroring, so the feed is always renderable.
type PublicFilter struct {
	Query string
	Sort  string
	Order string
}

// ProjectRepository defines the interface for project data access. Every
// per-user method re-checks row ownership inside the query itself; a row
// owned by someone else is indistinguishable from a missing one.
type ProjectRepository interface {
	Create(project *models.Project) error
	ListByUser(userID uint) ([]models.ProjectSummary, error)
	ListPublic(filter PublicFilter) ([]models.ProjectSummary, error)
	GetOwned(id, userID uint) (*models.Project, error)
	Update(id, userID uint, fields map[string]interface{}) (*models.Project, error)
	Delete(id, userID uint, cascadeImages bool) (removedFiles []string, err error)
}
