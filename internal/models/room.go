package models

import (
	"fmt"
	"path"
	"strings"
	"time"
)

type Room struct {
	ID          int64       `json:"id" yaml:"-"`
	Name        string      `json:"name" yaml:"name"`
	Location    string      `json:"location" yaml:"location"`
	Capacity    int         `json:"capacity" yaml:"capacity"`
	Equipment   string      `json:"equipment" yaml:"equipment"`
	Description string      `json:"description" yaml:"description"`
	Available   bool        `json:"available" yaml:"available"`
	Images      []RoomImage `json:"images" yaml:"-"`
	CreatedAt   time.Time   `json:"created_at" yaml:"-"`
	UpdatedAt   time.Time   `json:"updated_at" yaml:"-"`
}

// RoomImage is one stored picture of a room. Key is the object-store key,
// Position keeps the upload order.
type RoomImage struct {
	Position int    `json:"position"`
	Key      string `json:"key"`
	URL      string `json:"url"`
}

// ImageFile is an uploaded file waiting to be put into the object store.
type ImageFile struct {
	Name string
	Size int64
	Data []byte
}

// ImageURLs returns the image URLs in upload order.
func (r *Room) ImageURLs() []string {
	urls := make([]string, 0, len(r.Images))
	for _, img := range r.Images {
		urls = append(urls, img.URL)
	}
	return urls
}

// ImageKeys returns the object-store keys of the room images.
func (r *Room) ImageKeys() []string {
	keys := make([]string, 0, len(r.Images))
	for _, img := range r.Images {
		keys = append(keys, img.Key)
	}
	return keys
}

// RoomImagePrefix is the object-store prefix every image of a room lives under.
func RoomImagePrefix(roomID int64) string {
	return fmt.Sprintf("room/%d/", roomID)
}

// ImageObjectID is the identity an object store gives key. Stores that key
// objects by name without extension treat room/1/a-0.png and room/1/a-0.jpg
// as the same object.
func ImageObjectID(key string) string {
	return strings.TrimSuffix(key, path.Ext(key))
}
