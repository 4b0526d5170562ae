package models

import "time"

// ProjectImage is a single uploaded image belonging to exactly one project.
// Filename is server-generated and collision-resistant; OriginalName is the
// untrusted client-supplied name, kept as metadata only and never used for
// disk paths.
type ProjectImage struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	ProjectID    uint      `json:"project_id" gorm:"not null;index"`
	Project      Project   `json:"-" gorm:"foreignKey:ProjectID"`
	Filename     string    `json:"filename" gorm:"type:varchar(255);not null"`
	OriginalName string    `json:"original_name" gorm:"type:varchar(255)"`
	FilePath     string    `json:"file_path" gorm:"type:varchar(512);not null"`
	FileSize     int64     `json:"file_size"`
	MimeType     string    `json:"mime_type" gorm:"type:varchar(100)"`
	CreatedAt    time.Time `json:"created_at" gorm:"index"`
}
