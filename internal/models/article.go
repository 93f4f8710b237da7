package models

import "time"

type Article struct {
	ID               uint   `gorm:"primaryKey" json:"id"`
	Title            string `gorm:"size:100;not null" json:"title"`
	Category         string `gorm:"size:50;not null;index" json:"category"`
	Content          string `gorm:"type:text;not null" json:"content"`
	FeaturedImage    string `gorm:"not null" json:"featured_image"`
	FeaturedImageKey string `json:"-"`
	AuthorID         uint   `gorm:"not null;index" json:"author_id"`
	Author           User   `gorm:"foreignKey:AuthorID" json:"author"`

	// Counts are read-only columns filled by listing queries.
	LikesCount    int64 `gorm:"->;-:migration" json:"likes_count"`
	CommentsCount int64 `gorm:"->;-:migration" json:"comments_count"`
	SavesCount    int64 `gorm:"->;-:migration" json:"saves_count"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Comments []Comment      `gorm:"foreignKey:ArticleID;constraint:OnDelete:CASCADE" json:"-"`
	Likes    []Like         `gorm:"foreignKey:ArticleID;constraint:OnDelete:CASCADE" json:"-"`
	Saves    []SavedArticle `gorm:"foreignKey:ArticleID;constraint:OnDelete:CASCADE" json:"-"`
}
