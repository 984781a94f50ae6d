package domain

// IngestionStatus is the ingestion flow state machine.
type IngestionStatus string

const (
	IngestionStatusReceived  IngestionStatus = "received"
	IngestionStatusExtracted IngestionStatus = "extracted"
	IngestionStatusValidated IngestionStatus = "validated"
	IngestionStatusPersisted IngestionStatus = "persisted"
	IngestionStatusFailed    IngestionStatus = "failed"
)

// AllowedImageTypes maps accepted MIME content types to file extensions.
var AllowedImageTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
}

// AllowedImageExtensions maps file extensions (without dot) to content types.
var AllowedImageExtensions = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
}
