package services_test

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
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

// newFileHeader builds a real multipart.FileHeader the way an incoming
// request would.
func newFileHeader(t *testing.T, filename, contentType string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, filename))
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	form, err := multipart.NewReader(&buf, writer.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	return form.File["image"][0]
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func newUploadService(t *testing.T) (*services.UploadService, *MockUserRepository, *MockProjectRepository, *MockImageRepository, *storage.FileStore) {
	t.Helper()
	userRepo := new(MockUserRepository)
	projectRepo := new(MockProjectRepository)
	imageRepo := new(MockImageRepository)
	store := newTestFileStore(t)
	service := services.NewUploadService(store, userRepo, projectRepo, imageRepo, services.EchoPreviewGenerator{}, nil)
	return service, userRepo, projectRepo, imageRepo, store
}

func TestUploadService_UploadAvatar(t *testing.T) {
	service, userRepo, _, _, store := newUploadService(t)

	userRepo.On("UpdateAvatarPath", uint(1), mock.MatchedBy(func(path string) bool {
		return len(path) > len("/uploads/")
	})).Return(nil).Once()

	avatarPath, err := service.UploadAvatar(1, newFileHeader(t, "me.png", "image/png", []byte("png")))
	assert.NoError(t, err)
	assert.Contains(t, avatarPath, "/uploads/")
	assert.Len(t, dirEntries(t, store.Dir()), 1)
	userRepo.AssertExpectations(t)
}

func TestUploadService_UploadAvatarCleansUpOnFailure(t *testing.T) {
	service, userRepo, _, _, store := newUploadService(t)

	userRepo.On("UpdateAvatarPath", uint(1), mock.Anything).Return(fmt.Errorf("db down")).Once()

	_, err := service.UploadAvatar(1, newFileHeader(t, "me.png", "image/png", []byte("png")))
	assert.Error(t, err)
	// The just-written file is removed before the error returns.
	assert.Empty(t, dirEntries(t, store.Dir()))
	userRepo.AssertExpectations(t)
}

func TestUploadService_GeneratePreviewEchoesUpload(t *testing.T) {
	service, _, _, _, store := newUploadService(t)

	previewURL, err := service.GeneratePreview(newFileHeader(t, "scan.jpg", "image/jpeg", []byte("jpg")))
	assert.NoError(t, err)
	assert.Contains(t, previewURL, "/uploads/")
	assert.Len(t, dirEntries(t, store.Dir()), 1)
}

func TestUploadService_UploadProjectImages(t *testing.T) {
	service, _, projectRepo, imageRepo, store := newUploadService(t)

	project := &models.Project{ID: 5, UserID: 1}
	projectRepo.On("GetOwned", uint(5), uint(1)).Return(project, nil).Once()
	imageRepo.On("CreateBatch", mock.MatchedBy(func(images []*models.ProjectImage) bool {
		return len(images) == 2 && images[0].ProjectID == 5 && images[0].OriginalName == "one.jpg"
	})).Return(nil).Once()

	files := []*multipart.FileHeader{
		newFileHeader(t, "one.jpg", "image/jpeg", []byte("one")),
		newFileHeader(t, "two.jpg", "image/jpeg", []byte("two")),
	}
	images, err := service.UploadProjectImages(1, 5, files)
	assert.NoError(t, err)
	assert.Len(t, images, 2)
	assert.Len(t, dirEntries(t, store.Dir()), 2)
	projectRepo.AssertExpectations(t)
	imageRepo.AssertExpectations(t)
}

func TestUploadService_UploadProjectImagesNotOwned(t *testing.T) {
	service, _, projectRepo, imageRepo, store := newUploadService(t)

	projectRepo.On("GetOwned", uint(5), uint(2)).Return(nil, repositories.ErrNotFound).Once()

	files := []*multipart.FileHeader{newFileHeader(t, "one.jpg", "image/jpeg", []byte("one"))}
	_, err := service.UploadProjectImages(2, 5, files)
	assert.ErrorIs(t, err, services.ErrNotFound)
	assert.Empty(t, dirEntries(t, store.Dir()))
	imageRepo.AssertNotCalled(t, "CreateBatch", mock.Anything)
}

func TestUploadService_UploadProjectImagesRejectsBadBatch(t *testing.T) {
	service, _, projectRepo, imageRepo, store := newUploadService(t)
	project := &models.Project{ID: 5, UserID: 1}

	// Empty batch.
	projectRepo.On("GetOwned", uint(5), uint(1)).Return(project, nil)
	_, err := service.UploadProjectImages(1, 5, nil)
	assert.ErrorIs(t, err, services.ErrNoFile)

	// One file over the batch limit: the whole batch fails, no rows, no
	// disk writes.
	files := make([]*multipart.FileHeader, 0, services.MaxFilesPerBatch+1)
	for i := 0; i <= services.MaxFilesPerBatch; i++ {
		files = append(files, newFileHeader(t, fmt.Sprintf("f%d.jpg", i), "image/jpeg", []byte("x")))
	}
	_, err = service.UploadProjectImages(1, 5, files)
	assert.ErrorIs(t, err, services.ErrTooManyFiles)

	// A single unsupported file aborts before any disk write.
	files = []*multipart.FileHeader{
		newFileHeader(t, "ok.jpg", "image/jpeg", []byte("x")),
		newFileHeader(t, "nope.txt", "text/plain", []byte("x")),
	}
	_, err = service.UploadProjectImages(1, 5, files)
	assert.ErrorIs(t, err, storage.ErrUnsupportedFileType)

	assert.Empty(t, dirEntries(t, store.Dir()))
	imageRepo.AssertNotCalled(t, "CreateBatch", mock.Anything)
}

func TestUploadService_UploadProjectImagesCleansUpOnInsertFailure(t *testing.T) {
	service, _, projectRepo, imageRepo, store := newUploadService(t)

	project := &models.Project{ID: 5, UserID: 1}
	projectRepo.On("GetOwned", uint(5), uint(1)).Return(project, nil).Once()
	imageRepo.On("CreateBatch", mock.Anything).Return(fmt.Errorf("insert failed")).Once()

	files := []*multipart.FileHeader{
		newFileHeader(t, "one.jpg", "image/jpeg", []byte("one")),
		newFileHeader(t, "two.jpg", "image/jpeg", []byte("two")),
	}
	_, err := service.UploadProjectImages(1, 5, files)
	assert.Error(t, err)
	// The batch insert is transactional, so the files of the failed
	// attempt are all removed.
	assert.Empty(t, dirEntries(t, store.Dir()))
	imageRepo.AssertExpectations(t)
}

func TestUploadService_DeleteImage(t *testing.T) {
	service, _, _, imageRepo, store := newUploadService(t)

	// The disk file is already gone; the database row still defines
	// existence, so the delete succeeds.
	image := &models.ProjectImage{ID: 10, ProjectID: 5, FilePath: filepath.Join(store.Dir(), "gone.jpg")}
	imageRepo.On("GetOwned", uint(10), uint(1)).Return(image, nil).Once()
	imageRepo.On("Delete", uint(10)).Return(nil).Once()

	assert.NoError(t, service.DeleteImage(1, 10))
	imageRepo.AssertExpectations(t)

	// Not reachable through an owned project.
	imageRepo.On("GetOwned", uint(11), uint(1)).Return(nil, repositories.ErrNotFound).Once()
	assert.ErrorIs(t, service.DeleteImage(1, 11), services.ErrNotFound)
	imageRepo.AssertNotCalled(t, "Delete", uint(11))
}
