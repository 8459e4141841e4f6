package model

import (
	"errors"
	"time"
)

// MaxBriefImages is the maximum number of reference images a brief carries.
const MaxBriefImages = 4

// ProductBrief is the user-supplied product input that seeds every
// generation. It is immutable once passed downstream.
type ProductBrief struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Direction   string         `json:"direction"`
	Images      []MediaPayload `json:"images,omitempty"`
}

// Validate checks the constraints shared by every generation entry point.
func (b ProductBrief) Validate() error {
	if b.Name == "" {
		return errors.New("brief name is required")
	}
	if b.Description == "" {
		return errors.New("brief description is required")
	}
	if len(b.Images) > MaxBriefImages {
		return errors.New("brief carries too many reference images")
	}
	return nil
}

// ProductRecord is a brief persisted in the product library. Uniqueness is
// exact match on (name, description, image-set); re-saving an existing
// product touches its timestamp instead of duplicating it.
type ProductRecord struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Images      []MediaPayload `json:"images,omitempty"`
	Pinned      bool           `json:"pinned"`
	CreatedAt   string         `json:"created_at"`
	UpdatedAt   string         `json:"updated_at"`
}

// NewProductRecord creates a record from a brief.
func NewProductRecord(id string, brief ProductBrief) ProductRecord {
	now := time.Now().UTC().Format(time.RFC3339)
	return ProductRecord{
		ID:          id,
		Name:        brief.Name,
		Description: brief.Description,
		Images:      brief.Images,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
