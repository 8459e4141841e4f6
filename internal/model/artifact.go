package model

import "time"

// Library asset kinds
const (
	AssetConcept = "concept"
	AssetImage   = "image"
	AssetVideo   = "video"
)

// ImageArtifact is a generated or edited image together with its full
// lineage. Every image traces back to exactly one concept via ConceptID;
// filtering by (ConceptID, Mode) must never leak artifacts from another
// concept or mode.
type ImageArtifact struct {
	ID      string       `json:"id"`
	Payload MediaPayload `json:"payload"`
	Prompt  string       `json:"prompt"`

	ProductName  string `json:"product_name"`
	Direction    string `json:"direction"`
	ConceptID    string `json:"concept_id"`
	ConceptTitle string `json:"concept_title"`
	Mode         Mode   `json:"mode"`
	CreatedAt    string `json:"created_at"`
}

// VideoArtifact is a synthesized video. Videos carry no concept id; they are
// grouped for display by (ProductName, ConceptTitle), a weaker join than the
// image model's.
type VideoArtifact struct {
	ID        string       `json:"id"`
	RemoteURI string       `json:"remote_uri"`
	Payload   MediaPayload `json:"payload"`

	ProductName  string `json:"product_name"`
	Direction    string `json:"direction"`
	ConceptTitle string `json:"concept_title"`
	Mode         Mode   `json:"mode"`
	CreatedAt    string `json:"created_at"`
}

// ShotDescriptor is one parsed storyboard unit: a short label plus a precise
// image-editing instruction.
type ShotDescriptor struct {
	Label       string `json:"label"`
	Instruction string `json:"instruction"`
}

// Shot is a rendered storyboard unit in the session working set.
type Shot struct {
	Label       string       `json:"label"`
	Instruction string       `json:"instruction"`
	Payload     MediaPayload `json:"payload"`
	ArtifactID  string       `json:"artifact_id"`
}

// ImageOptions configures a single image generation call. The quality tier
// is selected by model identifier, so HighRes switches models rather than
// adding a request parameter.
type ImageOptions struct {
	AspectRatio string `json:"aspect_ratio"`
	HighRes     bool   `json:"high_res"`
}

// MaxVideoReferences is the provider hard limit on reference images per
// video job; submissions truncate to this count.
const MaxVideoReferences = 3

// VideoOptions fixes the output shape of a video job.
type VideoOptions struct {
	AspectRatio string `json:"aspect_ratio"`
	Resolution  string `json:"resolution"`
}

// OperationStatus is the polled state of a long-running video job.
type OperationStatus struct {
	Done     bool   `json:"done"`
	VideoURI string `json:"video_uri,omitempty"`
}

// LibraryAsset is a user-promoted copy of a concept, image, or video. Its
// lifecycle is independent of the history store it was promoted from:
// deleting the history entry does not delete the asset, and deleting the
// asset leaves history untouched.
type LibraryAsset struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	MimeType string `json:"mime_type"`
	Content  []byte `json:"content"`

	ProductName  string `json:"product_name"`
	ConceptTitle string `json:"concept_title"`
	Direction    string `json:"direction"`
	Mode         Mode   `json:"mode"`
	Pinned       bool   `json:"pinned"`
	CreatedAt    string `json:"created_at"`
}

// NewImageArtifact builds an image artifact tagged with the lineage of the
// concept that produced it.
func NewImageArtifact(id string, payload MediaPayload, prompt string, concept Concept) ImageArtifact {
	return ImageArtifact{
		ID:           id,
		Payload:      payload,
		Prompt:       prompt,
		ProductName:  concept.ProductName,
		Direction:    concept.Direction,
		ConceptID:    concept.ID,
		ConceptTitle: concept.Title,
		Mode:         concept.Mode,
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
	}
}

// NewVideoArtifact builds a video artifact tagged with concept lineage.
func NewVideoArtifact(id, remoteURI string, payload MediaPayload, concept Concept) VideoArtifact {
	return VideoArtifact{
		ID:           id,
		RemoteURI:    remoteURI,
		Payload:      payload,
		ProductName:  concept.ProductName,
		Direction:    concept.Direction,
		ConceptTitle: concept.Title,
		Mode:         concept.Mode,
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
	}
}
