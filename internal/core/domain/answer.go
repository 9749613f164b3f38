package domain

// QueryState identifies which branch of the answer state machine handled
// a query.
type QueryState string

const (
	// QueryStateShort means the query was below the minimum length and
	// retrieval was never invoked.
	QueryStateShort QueryState = "short_query"
	// QueryStateEmpty means retrieval returned no results above the
	// similarity threshold.
	QueryStateEmpty QueryState = "no_results"
	// QueryStateAnswered means an answer was generated from context.
	QueryStateAnswered QueryState = "answered"
	// QueryStateDegraded means generation failed or timed out and the
	// templated apology was returned instead.
	QueryStateDegraded QueryState = "degraded"
)

// Citation points at a chunk used to ground an answer.
type Citation struct {
	// Title is the cited document's title.
	Title string `json:"title"`

	// Page is the cited chunk's page number.
	Page int `json:"page"`

	// Excerpt is a short slice of the cited content.
	Excerpt string `json:"excerpt,omitempty"`

	// Relevance is the similarity score of the cited chunk.
	Relevance float64 `json:"relevance"`
}

// Answer is the uniform output shape of the answer pipeline. Every query
// resolves to one of these; callers never receive a raw generation error.
type Answer struct {
	// Text is the answer body, which may be a fixed template.
	Text string `json:"answer"`

	// Sources lists the chunks the answer was grounded on. Empty for
	// the short-query and no-results states.
	Sources []Citation `json:"sources"`

	// State records which branch of the state machine produced this
	// answer.
	State QueryState `json:"-"`
}

// QueryMetrics captures per-query timing and result statistics for the
// metrics recorder.
type QueryMetrics struct {
	// QueryTime is the total wall time for the query.
	QueryTime float64 `json:"query_time"`

	// SearchTime is the time spent embedding and searching.
	SearchTime float64 `json:"search_time"`

	// ProcessingTime is the time spent assembling context and
	// generating the answer.
	ProcessingTime float64 `json:"processing_time"`

	// NumResults is the number of retrieved results.
	NumResults int `json:"num_results"`

	// AvgSimilarity is the mean similarity of retrieved results, or 0
	// when there were none.
	AvgSimilarity float64 `json:"avg_similarity"`
}
