package models

import "time"

// Comment is created only; there is no edit or delete path.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"user"`
	ArticleID uint      `gorm:"not null;index" json:"article_id"`
	CreatedAt time.Time `json:"created_at"`
}
