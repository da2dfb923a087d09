package llm

import (
	"context"

	"github.com/rfields/scanwatch/internal/extract"
)

// Kind discriminates the classification variants.
type Kind string

const (
	KindDocument     Kind = "document"
	KindPhoto        Kind = "photo"
	KindUnrecognized Kind = "unrecognized"
)

// DocumentFields is the structured judgment for a scanned document.
type DocumentFields struct {
	Date    string // "YYYY-MM-DD", empty when the model saw no date
	Sender  string
	Summary string
}

// PhotoFields is the structured judgment for a photo.
type PhotoFields struct {
	Year     int // 0 when the model saw no year
	Subject  string
	Location string
}

// Classification is the model's structured reply. Exactly one variant is
// populated; RawText carries the original reply for the Unrecognized case.
type Classification struct {
	Kind     Kind
	Document *DocumentFields
	Photo    *PhotoFields
	RawText  string
}

func NewDocument(f DocumentFields) Classification {
	return Classification{Kind: KindDocument, Document: &f}
}

func NewPhoto(f PhotoFields) Classification {
	return Classification{Kind: KindPhoto, Photo: &f}
}

func NewUnrecognized(raw string) Classification {
	return Classification{Kind: KindUnrecognized, RawText: raw}
}

// Classifier turns an image payload into a Classification. Transport
// failures and timeouts surface as common.ErrModelUnavailable; a reply
// that matches neither template is NOT an error, it is KindUnrecognized.
type Classifier interface {
	Classify(ctx context.Context, payload extract.Payload) (Classification, error)
}
