package models

import "time"

// StatusProcessing is the status a freshly created project starts in.
const StatusProcessing = "processing"

// Project is a user-owned unit of work holding uploaded images and,
// eventually, one generated result artifact. UserID never changes after
// creation and is the authorization anchor for every project operation.
type Project struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      uint      `json:"user_id" gorm:"not null;index"`
	User        User      `json:"-" gorm:"foreignKey:UserID"`
	Name        string    `json:"name" gorm:"type:varchar(255);not null" validate:"required"`
	Description *string   `json:"description"`
	IsPublic    bool      `json:"is_public" gorm:"default:false;index"`
	Status      string    `json:"status" gorm:"type:varchar(50);default:processing"`
	ResultFile  *string   `json:"result_file"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProjectOwner is the public display info of a project's owning user.
type ProjectOwner struct {
	Email string  `json:"email"`
	Name  *string `json:"name"`
}

// ProjectSummary is a listing row: a project annotated with its thumbnail
// (earliest-created image, or the default placeholder) and, in the public
// feed, the owner's display info.
type ProjectSummary struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	IsPublic    bool      `json:"is_public"`
	Status      string    `json:"status"`
	ResultFile  *string   `json:"result_file"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Thumbnail   string    `json:"thumbnail"`

	// Scanned from the joined users row, only populated by the public feed.
	UserEmail *string `json:"-"`
	UserName  *string `json:"-"`
}

// PublicProject is the public feed's JSON shape for a ProjectSummary.
type PublicProject struct {
	ProjectSummary
	User ProjectOwner `json:"user"`
}
