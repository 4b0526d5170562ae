package services

import "modelforge/pkg/storage"

// PreviewGenerator turns an uploaded image into a preview artifact
// reference. It is the seam where a real 3D reconstruction backend plugs
// in, independently of the rest of the system.
type PreviewGenerator interface {
	Generate(file *storage.StoredFile) (string, error)
}

// EchoPreviewGenerator is the shipped default: it simply hands back the
// uploaded image's own URL as the "preview".
type EchoPreviewGenerator struct{}

// Generate returns the stored file's URL unchanged.
func (EchoPreviewGenerator) Generate(file *storage.StoredFile) (string, error) {
	return file.URL, nil
}
