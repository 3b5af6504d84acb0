package domain

import "time"

// Category is the closed set of artwork categories.
type Category string

const (
	CategoryCharacters   Category = "Characters"
	CategoryEnvironments Category = "Environments"
	CategoryAbstract     Category = "Abstract"
	CategoryProducts     Category = "Products"
)

// Categories lists the closed set in display order.
func Categories() []Category {
	return []Category{CategoryCharacters, CategoryEnvironments, CategoryAbstract, CategoryProducts}
}

// ParseCategory validates a raw category value against the closed set.
func ParseCategory(raw string) (Category, error) {
	for _, c := range Categories() {
		if string(c) == raw {
			return c, nil
		}
	}
	return "", NewError(ErrCodeValidation, "unknown category: "+raw)
}

// Artwork represents one published work as the persistence service returned
// it. The service assigns ID and timestamps; OwnerID never changes after
// creation; Views and Likes never decrease from the client's perspective.
type Artwork struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	OwnerName   string    `json:"owner_name,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Category    Category  `json:"category"`
	ImageURL    string    `json:"image_url,omitempty"`
	Views       int       `json:"views"`
	Likes       int       `json:"likes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// OwnedBy reports whether the record belongs to the given identity.
func (a *Artwork) OwnedBy(identity *Identity) bool {
	return a != nil && identity != nil && a.OwnerID == identity.ID
}

// ArtworkDraft is the input shape for a creation request. It is a distinct
// type from Artwork so form state never masquerades as a persisted record.
type ArtworkDraft struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Category    Category `json:"category"`
	ImageURL    string   `json:"image_url,omitempty"`
}

// Validate checks the draft before any network call.
func (d ArtworkDraft) Validate() error {
	if d.Title == "" {
		return NewError(ErrCodeValidation, "title is required")
	}
	if _, err := ParseCategory(string(d.Category)); err != nil {
		return err
	}
	return nil
}

// ArtworkPatch carries a partial update. Nil fields retain prior values.
type ArtworkPatch struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Category    *Category `json:"category,omitempty"`
	ImageURL    *string   `json:"image_url,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p ArtworkPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Category == nil && p.ImageURL == nil
}

// Validate checks the supplied fields only.
func (p ArtworkPatch) Validate() error {
	if p.Title != nil && *p.Title == "" {
		return NewError(ErrCodeValidation, "title cannot be empty")
	}
	if p.Category != nil {
		if _, err := ParseCategory(string(*p.Category)); err != nil {
			return err
		}
	}
	return nil
}

// Apply copies the supplied fields onto the record.
func (p ArtworkPatch) Apply(a *Artwork) {
	if a == nil {
		return
	}
	if p.Title != nil {
		a.Title = *p.Title
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
	if p.Category != nil {
		a.Category = *p.Category
	}
	if p.ImageURL != nil {
		a.ImageURL = *p.ImageURL
	}
}
