package media

import "strings"

// Category is a broad advertising channel category
type Category string

const (
	CategoryTV      Category = "tv"
	CategoryRadio   Category = "radio"
	CategoryPrint   Category = "print"
	CategoryDigital Category = "digital"
	CategoryCinema  Category = "cinema"
	CategoryOutdoor Category = "outdoor"
	CategoryUnknown Category = "unknown"
)

// IsValid reports whether the category is one of the known values
func (c Category) IsValid() bool {
	switch c {
	case CategoryTV, CategoryRadio, CategoryPrint, CategoryDigital, CategoryCinema, CategoryOutdoor, CategoryUnknown:
		return true
	}
	return false
}

// Media is a channel category record as stored (e.g. "TV Cable", "Radio FM")
type Media struct {
	ID       int64
	Name     string
	Category Category
}

// Support is a specific outlet within a media, e.g. one radio station.
// MediaID is nil when the store never recorded the link.
type Support struct {
	ID         int64
	Name       string // free-text identifier, the input of the heuristic
	MediaID    *int64
	ProviderID *int64
}

// HasMedia reports whether the support carries an explicit media link
func (s *Support) HasMedia() bool {
	return s.MediaID != nil && *s.MediaID > 0
}

// AssignMedia sets the support's media link
func (s *Support) AssignMedia(mediaID int64) {
	s.MediaID = &mediaID
}

// Label returns a printable name for reports
func (s *Support) Label() string {
	if name := strings.TrimSpace(s.Name); name != "" {
		return name
	}
	return "(sin nombre)"
}
