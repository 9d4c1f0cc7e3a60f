package models

import "time"

// TextReference records an uploaded text: where the blob lives on the CDN
// and which concepts were extracted from it.
type TextReference struct {
	TextID          string    `json:"text_id"`
	UserID          string    `json:"user_id"`
	Filename        string    `json:"filename"`
	URL             string    `json:"url"`
	SourceURL       string    `json:"source_url,omitempty"`
	Concepts        []string  `json:"concepts"`
	UploadTimestamp time.Time `json:"upload_timestamp"`
	FileSize        int64     `json:"file_size,omitempty"`
}

type TextsByConceptResponse struct {
	Success bool            `json:"success"`
	Data    []TextReference `json:"data"`
}
