package pdp

import (
	"context"

	"github.com/sentrie-sh/aspen/combine"
	"github.com/sentrie-sh/aspen/evalctx"
	"github.com/sentrie-sh/aspen/trace"
)

// StaticRetrievalPoint is the simplest Policy Retrieval Point: a fixed set
// of documents known in full at construction. It never filters by
// subscription — every document's own target already decides
// applicability (§4.2/§4.5), so a static retrieval point's only job is to
// hand back everything there is.
type StaticRetrievalPoint struct {
	documents []combine.Document
}

// NewStaticRetrievalPoint builds a retrieval point over a fixed document
// set.
func NewStaticRetrievalPoint(documents ...combine.Document) *StaticRetrievalPoint {
	return &StaticRetrievalPoint{documents: documents}
}

// MatchingDocuments implements RetrievalPoint.
func (s *StaticRetrievalPoint) MatchingDocuments(ctx context.Context, sub evalctx.Subscription) ([]combine.Document, int, []trace.RetrievalError) {
	return s.documents, len(s.documents), nil
}
