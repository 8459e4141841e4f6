package model

// MediaPayload is a tagged binary blob. All image and video bytes move
// through the system in this form; conversion to and from the provider's
// base64 wire encoding happens only at the provider adapter.
type MediaPayload struct {
	MimeType string `json:"mime_type"`
	Data     []byte `json:"data"`
}

// Empty reports whether the payload carries no bytes.
func (p MediaPayload) Empty() bool {
	return len(p.Data) == 0
}
