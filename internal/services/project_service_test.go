package services_test

import (
	"os"
	"path/filepath"
	"testing"

	"modelforge/internal/models"
	"modelforge/internal/repositories"
	"modelforge/internal/services"
	"modelforge/pkg/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProjectRepository is a mock implementation of repositories.ProjectRepository
type MockProjectRepository struct {
	mock.Mock
}

func (m *MockProjectRepository) Create(project *models.Project) error {
	args := m.Called(project)
	return args.Error(0)
}

func (m *MockProjectRepository) ListByUser(userID uint) ([]models.ProjectSummary, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ProjectSummary), args.Error(1)
}

func (m *MockProjectRepository) ListPublic(filter repositories.PublicFilter) ([]models.ProjectSummary, error) {
	args := m.Called(filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ProjectSummary), args.Error(1)
}

func (m *MockProjectRepository) GetOwned(id, userID uint) (*models.Project, error) {
	args := m.Called(id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

func (m *MockProjectRepository) Update(id, userID uint, fields map[string]interface{}) (*models.Project, error) {
	args := m.Called(id, userID, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

func (m *MockProjectRepository) Delete(id, userID uint, cascadeImages bool) ([]string, error) {
	args := m.Called(id, userID, cascadeImages)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockImageRepository is a mock implementation of repositories.ImageRepository
type MockImageRepository struct {
	mock.Mock
}

func (m *MockImageRepository) CreateBatch(images []*models.ProjectImage) error {
	args := m.Called(images)
	return args.Error(0)
}

func (m *MockImageRepository) ListByProject(projectID uint) ([]models.ProjectImage, error) {
	args := m.Called(projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ProjectImage), args.Error(1)
}

func (m *MockImageRepository) GetOwned(id, userID uint) (*models.ProjectImage, error) {
	args := m.Called(id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProjectImage), args.Error(1)
}

func (m *MockImageRepository) Delete(id uint) error {
	args := m.Called(id)
	return args.Error(0)
}

func newTestFileStore(t *testing.T) *storage.FileStore {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir(), 0)
	require.NoError(t, err)
	return store
}

func TestProjectService_Create(t *testing.T) {
	projectRepo := new(MockProjectRepository)
	imageRepo := new(MockImageRepository)
	service := services.NewProjectService(projectRepo, imageRepo, newTestFileStore(t), services.DeleteRetain)

	// Name is trimmed before insert.
	projectRepo.On("Create", mock.MatchedBy(func(p *models.Project) bool {
		return p.Name == "Chair" && p.UserID == 1 && p.IsPublic && p.Status == models.StatusProcessing
	})).Return(nil).Once()

	project, err := service.Create(1, "  Chair  ", nil, true)
	assert.NoError(t, err)
	assert.Equal(t, "Chair", project.Name)
	projectRepo.AssertExpectations(t)

	// A name that is empty after trimming is rejected without touching the
	// repository.
	_, err = service.Create(1, "   ", nil, false)
	assert.ErrorIs(t, err, services.ErrInvalidInput)
	projectRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestProjectService_Get(t *testing.T) {
	projectRepo := new(MockProjectRepository)
	imageRepo := new(MockImageRepository)
	service := services.NewProjectService(projectRepo, imageRepo, newTestFileStore(t), services.DeleteRetain)

	project := &models.Project{ID: 5, UserID: 1, Name: "Chair"}
	images := []models.ProjectImage{{ID: 10, ProjectID: 5}, {ID: 11, ProjectID: 5}}

	projectRepo.On("GetOwned", uint(5), uint(1)).Return(project, nil).Once()
	imageRepo.On("ListByProject", uint(5)).Return(images, nil).Once()

	detail, err := service.Get(1, 5)
	assert.NoError(t, err)
	assert.Len(t, detail.Images, 2)
	projectRepo.AssertExpectations(t)
	imageRepo.AssertExpectations(t)

	// Another user's project is indistinguishable from a missing one.
	projectRepo.On("GetOwned", uint(5), uint(2)).Return(nil, repositories.ErrNotFound).Once()
	_, err = service.Get(2, 5)
	assert.ErrorIs(t, err, services.ErrNotFound)
	imageRepo.AssertNotCalled(t, "ListByProject", uint(5))
}

func TestProjectService_Update(t *testing.T) {
	projectRepo := new(MockProjectRepository)
	imageRepo := new(MockImageRepository)
	service := services.NewProjectService(projectRepo, imageRepo, newTestFileStore(t), services.DeleteRetain)

	// No fields supplied.
	_, err := service.Update(1, 5, services.ProjectUpdate{})
	assert.ErrorIs(t, err, services.ErrNoFields)
	projectRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)

	// Only present fields end up in the update map, with the name trimmed.
	name := " New Name "
	isPublic := true
	updated := &models.Project{ID: 5, Name: "New Name", IsPublic: true}
	projectRepo.On("Update", uint(5), uint(1), mock.MatchedBy(func(fields map[string]interface{}) bool {
		return len(fields) == 2 && fields["name"] == "New Name" && fields["is_public"] == true
	})).Return(updated, nil).Once()

	project, err := service.Update(1, 5, services.ProjectUpdate{Name: &name, IsPublic: &isPublic})
	assert.NoError(t, err)
	assert.Equal(t, "New Name", project.Name)
	projectRepo.AssertExpectations(t)
}

func TestProjectService_DeleteRetain(t *testing.T) {
	projectRepo := new(MockProjectRepository)
	imageRepo := new(MockImageRepository)
	service := services.NewProjectService(projectRepo, imageRepo, newTestFileStore(t), services.DeleteRetain)

	projectRepo.On("Delete", uint(5), uint(1), false).Return([]string{}, nil).Once()
	assert.NoError(t, service.Delete(1, 5))
	projectRepo.AssertExpectations(t)

	projectRepo.On("Delete", uint(6), uint(1), false).Return(nil, repositories.ErrNotFound).Once()
	assert.ErrorIs(t, service.Delete(1, 6), services.ErrNotFound)
	projectRepo.AssertExpectations(t)
}

func TestProjectService_DeleteCascadeRemovesFiles(t *testing.T) {
	projectRepo := new(MockProjectRepository)
	imageRepo := new(MockImageRepository)
	store := newTestFileStore(t)
	service := services.NewProjectService(projectRepo, imageRepo, store, services.DeleteCascade)

	// Seed two files the repository claims belong to the project.
	pathA := filepath.Join(store.Dir(), "a.jpg")
	pathB := filepath.Join(store.Dir(), "b.jpg")
	require.NoError(t, os.WriteFile(pathA, []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(pathB, []byte("b"), 0o644))

	projectRepo.On("Delete", uint(5), uint(1), true).Return([]string{pathA, pathB}, nil).Once()

	assert.NoError(t, service.Delete(1, 5))
	assert.NoFileExists(t, pathA)
	assert.NoFileExists(t, pathB)
	projectRepo.AssertExpectations(t)
}

func TestProjectService_ListPublic(t *testing.T) {
	projectRepo := new(MockProjectRepository)
	imageRepo := new(MockImageRepository)
	service := services.NewProjectService(projectRepo, imageRepo, newTestFileStore(t), services.DeleteRetain)

	email := "owner@example.com"
	owner := "Owner"
	rows := []models.ProjectSummary{
		{ID: 1, Name: "Chair", IsPublic: true, Thumbnail: repositories.DefaultThumbnail, UserEmail: &email, UserName: &owner},
	}
	projectRepo.On("ListPublic", repositories.PublicFilter{Query: "chair"}).Return(rows, nil).Once()

	projects, err := service.ListPublic(repositories.PublicFilter{Query: "chair"})
	assert.NoError(t, err)
	assert.Len(t, projects, 1)
	assert.Equal(t, "owner@example.com", projects[0].User.Email)
	assert.Equal(t, "Owner", *projects[0].User.Name)
	projectRepo.AssertExpectations(t)
}
