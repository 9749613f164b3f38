package driving

import (
	"context"

	"github.com/civicdocs/planrag/internal/core/domain"
)

// AnswerService answers natural-language questions over the ingested
// corpus. Every query resolves to a domain.Answer; raw retrieval or
// generation failures are never propagated to the caller.
type AnswerService interface {
	// Answer runs the query through the retrieval pipeline and
	// synthesizes a grounded answer with citations. topK bounds the
	// number of retrieved results; zero or negative means the
	// configured default.
	Answer(ctx context.Context, query string, topK int) (domain.Answer, error)
}

// Retriever embeds a query, searches the store and filters results by
// the configured minimum similarity. An empty result is a valid,
// non-error outcome.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]domain.QueryResult, error)
}
