package extract

import "context"

// Payload is the single still image handed to the classifier. Owned by
// the pipeline invocation that created it; never persisted.
type Payload struct {
	Data       []byte
	MediaType  string // always "image/jpeg" after normalization
	SourceKind string // "pdf" | "image"
}

// PageExtractor turns a stable file path into an image payload.
type PageExtractor interface {
	Extract(ctx context.Context, path string) (Payload, error)
}
