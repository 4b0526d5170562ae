package services

import (
	"errors"
	"fmt"
	"log"
	"mime/multipart"

	"modelforge/internal/models"
	"modelforge/internal/repositories"
	"modelforge/pkg/events"
	"modelforge/pkg/storage"
)

// MaxFilesPerBatch caps how many images one project upload may carry.
const MaxFilesPerBatch = 4

// UploadService validates and persists uploaded images, records their
// metadata rows and keeps disk and database consistent on failure: any file
// written during a failed operation is removed before the error returns.
type UploadService struct {
	store       *storage.FileStore
	userRepo    repositories.UserRepository
	projectRepo repositories.ProjectRepository
	imageRepo   repositories.ImageRepository
	preview     PreviewGenerator
	mqClient    *events.Client
}

// NewUploadService creates a new UploadService. mqClient may be nil, in
// which case job events are skipped.
func NewUploadService(store *storage.FileStore, userRepo repositories.UserRepository, projectRepo repositories.ProjectRepository, imageRepo repositories.ImageRepository, preview PreviewGenerator, mqClient *events.Client) *UploadService {
	return &UploadService{
		store:       store,
		userRepo:    userRepo,
		projectRepo: projectRepo,
		imageRepo:   imageRepo,
		preview:     preview,
		mqClient:    mqClient,
	}
}

// UploadAvatar stores the file and points the user's avatar at it. If the
// profile update fails after the disk write, the just-written file is
// deleted before the error returns.
func (s *UploadService) UploadAvatar(userID uint, file *multipart.FileHeader) (string, error) {
	stored, err := s.store.Save(file)
	if err != nil {
		return "", err
	}

	if err := s.userRepo.UpdateAvatarPath(userID, stored.URL); err != nil {
		s.removeStored(stored)
		if errors.Is(err, repositories.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to save avatar for user %d: %w", userID, err)
	}
	return stored.URL, nil
}

// GeneratePreview stores the uploaded image and asks the preview generator
// for an artifact reference. The default generator echoes the image back;
// a preview.requested event is published so a real reconstruction worker
// could pick the job up instead.
func (s *UploadService) GeneratePreview(file *multipart.FileHeader) (string, error) {
	stored, err := s.store.Save(file)
	if err != nil {
		return "", err
	}

	previewURL, err := s.preview.Generate(stored)
	if err != nil {
		s.removeStored(stored)
		return "", fmt.Errorf("failed to generate preview: %w", err)
	}

	if s.mqClient != nil {
		err := s.mqClient.PublishPreviewRequested(map[string]interface{}{
			"filename": stored.Filename,
			"preview":  previewURL,
		})
		if err != nil {
			log.Printf("Warning: failed to publish preview event for %s: %v", stored.Filename, err)
		}
	}
	return previewURL, nil
}

// UploadProjectImages persists a batch of images for an owned project.
// Ownership is verified first; a project owned by someone else is reported
// as ErrNotFound without revealing whether it exists. All files are
// validated before the first disk write, and the metadata rows are inserted
// in one transaction, so a mid-batch failure leaves neither rows nor files
// behind.
func (s *UploadService) UploadProjectImages(userID, projectID uint, files []*multipart.FileHeader) ([]models.ProjectImage, error) {
	if _, err := s.projectRepo.GetOwned(projectID, userID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if len(files) == 0 {
		return nil, ErrNoFile
	}
	if len(files) > MaxFilesPerBatch {
		return nil, ErrTooManyFiles
	}
	for _, file := range files {
		if err := s.store.Validate(file); err != nil {
			return nil, err
		}
	}

	var storedFiles []*storage.StoredFile
	cleanup := func() {
		for _, stored := range storedFiles {
			s.removeStored(stored)
		}
	}

	images := make([]*models.ProjectImage, 0, len(files))
	for _, file := range files {
		stored, err := s.store.Save(file)
		if err != nil {
			cleanup()
			return nil, err
		}
		storedFiles = append(storedFiles, stored)
		images = append(images, &models.ProjectImage{
			ProjectID:    projectID,
			Filename:     stored.Filename,
			OriginalName: stored.OriginalName,
			FilePath:     stored.FilePath,
			FileSize:     stored.Size,
			MimeType:     stored.MimeType,
		})
	}

	if err := s.imageRepo.CreateBatch(images); err != nil {
		cleanup()
		return nil, err
	}

	if s.mqClient != nil {
		err := s.mqClient.PublishImagesUploaded(map[string]interface{}{
			"projectID": projectID,
			"count":     len(images),
		})
		if err != nil {
			log.Printf("Warning: failed to publish upload event for project %d: %v", projectID, err)
		}
	}

	result := make([]models.ProjectImage, 0, len(images))
	for _, image := range images {
		result = append(result, *image)
	}
	return result, nil
}

// DeleteImage removes an image reachable through a project owned by
// userID. The database row goes first; a failed disk unlink is logged and
// swallowed, since the database decides whether the image exists.
func (s *UploadService) DeleteImage(userID, imageID uint) error {
	image, err := s.imageRepo.GetOwned(imageID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := s.imageRepo.Delete(imageID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := s.store.RemovePath(image.FilePath); err != nil {
		log.Printf("Failed to remove file %s of deleted image %d: %v", image.FilePath, imageID, err)
	}
	return nil
}

// removeStored deletes a file written during a failed operation.
func (s *UploadService) removeStored(stored *storage.StoredFile) {
	if err := s.store.Remove(stored.Filename); err != nil {
		log.Printf("Failed to clean up file %s: %v", stored.Filename, err)
	}
}
