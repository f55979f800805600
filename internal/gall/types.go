// Package gall is a thin client for the GALL gallery-hosting REST API.
package gall

// User is a GALL account, usually mirrored from a chat-platform identity.
type User struct {
	UUID         string `json:"uuid"`
	Snowflake    string `json:"snowflake"`
	Username     string `json:"username"`
	DisplayName  string `json:"displayName"`
	ProfileName  string `json:"profileName"`
	ProfileImage *Image `json:"profileImage"`
}

// Image is a single uploaded image within a gallery.
type Image struct {
	ID      int64  `json:"id"`
	URL     string `json:"url"`
	Origin  string `json:"origin"`
	IsCover bool   `json:"is_cover"`
}

// Gallery is a published record of one or more uploaded images.
type Gallery struct {
	ID          int64  `json:"id"`
	Identifier  string `json:"identifier"`
	Type        string `json:"type"`
	Founder     *User  `json:"founder"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Cover       *Image `json:"cover"`
	Views       *int64 `json:"views"`
}

// IsNew reports whether the gallery was created by the request that returned
// it. The API signals this with a null view count.
func (g Gallery) IsNew() bool {
	return g.Views == nil
}

// ViewCount returns the view count, zero for new galleries.
func (g Gallery) ViewCount() int64 {
	if g.Views == nil {
		return 0
	}
	return *g.Views
}

// Emoji is a chat-platform emoji as GALL records it. Standard unicode emoji
// have no ID and carry their identity in Name.
type Emoji struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Animated bool   `json:"animated,omitempty"`
	GuildID  string `json:"guild_id,omitempty"`
}

// GalleryRef identifies a gallery by bare id or by full record. Callers
// resolve it once at the API boundary instead of passing "gallery or id"
// values around.
type GalleryRef interface {
	GalleryID() int64
}

// ID is a bare gallery identifier.
type ID int64

// GalleryID implements GalleryRef.
func (id ID) GalleryID() int64 { return int64(id) }

// GalleryID implements GalleryRef.
func (g Gallery) GalleryID() int64 { return g.ID }

// Identity is the result of a GET /@me call: the token's own user and, when
// an acting identity was supplied, the user being acted as.
type Identity struct {
	User   User  `json:"user"`
	Acting *User `json:"acting"`
}
