package models

import (
	"database/sql/driver"
	"strings"
	"time"

	"gorm.io/gorm"
)

// StringArray is a custom type for PostgreSQL text[] that implements Scanner and Valuer
type StringArray []string

// Scan implements the sql.Scanner interface for reading from database
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = nil
		return nil
	}

	// PostgreSQL returns text[] as a string like "{value1,value2,value3}"
	str, ok := value.(string)
	if !ok {
		if bytes, ok := value.([]byte); ok {
			str = string(bytes)
		} else {
			*a = nil
			return nil
		}
	}

	str = strings.TrimPrefix(str, "{")
	str = strings.TrimSuffix(str, "}")

	if str == "" {
		*a = []string{}
		return nil
	}

	*a = strings.Split(str, ",")
	return nil
}

// Value implements the driver.Valuer interface for writing to database
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	if len(a) == 0 {
		return "{}", nil
	}
	return "{" + strings.Join(a, ",") + "}", nil
}

// Contains reports whether s is a member of the array.
func (a StringArray) Contains(s string) bool {
	for _, v := range a {
		if v == s {
			return true
		}
	}
	return false
}

// Without returns a copy of the array with s removed.
func (a StringArray) Without(s string) StringArray {
	out := make(StringArray, 0, len(a))
	for _, v := range a {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}

// User represents a gallery account created through Kakao login
type User struct {
	ID       string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Nickname string `gorm:"uniqueIndex" json:"nickname"`

	// OAuth provider ID (nullable - login is email-unified)
	KakaoID *string `gorm:"uniqueIndex" json:"-"`

	// Feather is the in-app point balance. Earned by posting, spent by
	// commenting. Never negative; all mutations go through feather.Ledger.
	Feather int `gorm:"default:0;check:feather >= 0" json:"feather"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// MediaFile describes one attachment on a post. Upload/thumbnailing happens
// elsewhere; posts only carry the resulting URLs.
type MediaFile struct {
	URL          string `json:"url"`
	FileType     string `json:"file_type"` // "image", "video"
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// MediaFiles is stored as a jsonb column
type MediaFiles []MediaFile

// Post represents a gallery post with media attachments
type Post struct {
	ID     string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID string `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Title    string      `gorm:"not null" json:"title"`
	Content  string      `gorm:"type:text" json:"content"`
	Nickname string      `json:"nickname"` // author nickname, denormalized
	Tags     StringArray `gorm:"type:text[]" json:"tags"`
	Media    MediaFiles  `gorm:"type:jsonb;serializer:json" json:"media"`

	// Like state. LikeCount mirrors len(LikedUserIDs); engagement.Service is
	// the only writer and recomputes the counter from the set on every toggle.
	LikeCount    int         `gorm:"default:0" json:"like_count"`
	LikedUserIDs StringArray `gorm:"type:text[]" json:"liked_user_ids"`

	CommentCount int `gorm:"default:0" json:"comment_count"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Comment represents a comment on a post
type Comment struct {
	ID     string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	PostID string `gorm:"not null;index" json:"post_id"`
	UserID string `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Content  string `gorm:"type:text;not null" json:"content"`
	Nickname string `json:"nickname"` // commenter nickname, denormalized

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// FCMToken holds one device's push registration for a user
type FCMToken struct {
	ID     string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID string `gorm:"not null;index" json:"user_id"`

	Token      string `gorm:"not null;uniqueIndex" json:"fcm_token"`
	DeviceType string `json:"device_type"` // "android" or "ios"

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
