package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/civicdocs/planrag/internal/core/domain"
	"github.com/civicdocs/planrag/internal/core/ports/driven"
	"github.com/civicdocs/planrag/internal/core/ports/driving"
	"github.com/civicdocs/planrag/internal/logger"
)

// Ensure AnswererService implements the interface.
var _ driving.AnswerService = (*AnswererService)(nil)

// Answer pipeline defaults.
const (
	// MinQueryLength is the minimum query length in characters.
	// Shorter queries never reach retrieval.
	MinQueryLength = 10

	// DefaultTopK is the number of chunks retrieved per query.
	DefaultTopK = 5

	// DefaultMaxContextChars caps the assembled context passed to the
	// LLM.
	DefaultMaxContextChars = 4000

	// excerptLength is the citation excerpt length in characters.
	excerptLength = 150
)

// Fixed template answers for the non-generation branches.
const (
	shortQueryAnswer = "Your question is quite short. Please provide a more detailed question so I can search the planning documents effectively."

	noResultsAnswer = "I couldn't find relevant information in the planning documents to answer that question. Try rephrasing it or asking about a different topic."

	apologyAnswer = "I apologize, but I ran into a problem while generating an answer. Please try again in a moment."
)

// answerPromptTemplate frames retrieved context for the LLM.
const answerPromptTemplate = `You are a helpful assistant answering questions about city planning documents, development plans and planning datasets.

Answer the question using only the context below. Be specific and cite document titles where relevant. If the context does not contain the answer, say that the documents do not cover it.

Context:
%s

Question: %s

Answer:`

// AnswererService runs the answer state machine: short queries and
// empty retrievals resolve to fixed templates, generation failures
// degrade to an apology, and every query resolves to a domain.Answer.
type AnswererService struct {
	retriever driving.Retriever
	llm       driven.LLMService
	metrics   driven.MetricsRecorder

	topK            int
	maxContextChars int
	maxTokens       int
	temperature     float64
}

// AnswererOption configures the answerer.
type AnswererOption func(*AnswererService)

// WithTopK sets the default number of retrieved chunks.
func WithTopK(k int) AnswererOption {
	return func(s *AnswererService) {
		if k > 0 {
			s.topK = k
		}
	}
}

// WithMaxContextChars caps the assembled context length.
func WithMaxContextChars(n int) AnswererOption {
	return func(s *AnswererService) {
		if n > 0 {
			s.maxContextChars = n
		}
	}
}

// WithGeneration sets LLM generation parameters.
func WithGeneration(maxTokens int, temperature float64) AnswererOption {
	return func(s *AnswererService) {
		if maxTokens > 0 {
			s.maxTokens = maxTokens
		}
		if temperature > 0 {
			s.temperature = temperature
		}
	}
}

// NewAnswererService creates an answerer.
func NewAnswererService(
	retriever driving.Retriever,
	llm driven.LLMService,
	metrics driven.MetricsRecorder,
	opts ...AnswererOption,
) *AnswererService {
	s := &AnswererService{
		retriever:       retriever,
		llm:             llm,
		metrics:         metrics,
		topK:            DefaultTopK,
		maxContextChars: DefaultMaxContextChars,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Answer runs the query through the pipeline. The returned error is
// non-nil only when ctx was cancelled; every other failure resolves to
// a templated answer.
func (s *AnswererService) Answer(
	ctx context.Context, query string, topK int,
) (domain.Answer, error) {
	start := time.Now()
	query = strings.TrimSpace(query)
	if topK <= 0 {
		topK = s.topK
	}

	logger.Section("Answer Pipeline")
	logger.Debug("Query: %q (top_k=%d)", query, topK)

	if queryLen := utf8.RuneCountInString(query); queryLen < MinQueryLength {
		logger.Info("Query below minimum length (%d < %d)", queryLen, MinQueryLength)
		s.metrics.LogShortQuery(query)
		return domain.Answer{
			Text:    shortQueryAnswer,
			Sources: []domain.Citation{},
			State:   domain.QueryStateShort,
		}, nil
	}

	results, err := s.retriever.Retrieve(ctx, query, topK)
	searchTime := time.Since(start)
	logger.Timing("retrieval", searchTime)
	if err != nil {
		if ctx.Err() != nil {
			return domain.Answer{}, ctx.Err()
		}
		logger.Warn("Retrieval failed: %v", err)
		s.metrics.LogError(query, err, time.Since(start))
		return domain.Answer{
			Text:    apologyAnswer,
			Sources: []domain.Citation{},
			State:   domain.QueryStateDegraded,
		}, nil
	}

	if len(results) == 0 {
		logger.Info("No results above threshold")
		s.metrics.LogEmptyResults(query)
		return domain.Answer{
			Text:    noResultsAnswer,
			Sources: []domain.Citation{},
			State:   domain.QueryStateEmpty,
		}, nil
	}

	procStart := time.Now()
	contextText := s.buildContext(results)
	prompt := fmt.Sprintf(answerPromptTemplate, contextText, query)
	logger.Debug("Prompt: %d chars of context from %d chunks", len(contextText), len(results))

	text, err := s.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	})
	logger.Timing("generation", time.Since(procStart))
	state := domain.QueryStateAnswered
	if err != nil {
		if ctx.Err() != nil {
			return domain.Answer{}, ctx.Err()
		}
		logger.Warn("Generation failed: %v", err)
		s.metrics.LogError(query, err, time.Since(start))
		text = apologyAnswer
		state = domain.QueryStateDegraded
	}

	answer := domain.Answer{
		Text:    strings.TrimSpace(text),
		Sources: buildCitations(results),
		State:   state,
	}

	if state == domain.QueryStateAnswered {
		s.metrics.LogQuery(query, domain.QueryMetrics{
			QueryTime:      time.Since(start).Seconds(),
			SearchTime:     searchTime.Seconds(),
			ProcessingTime: time.Since(procStart).Seconds(),
			NumResults:     len(results),
			AvgSimilarity:  avgSimilarity(results),
		})
	}

	return answer, nil
}

// buildContext assembles labelled chunks into one prompt context,
// never exceeding the configured character cap. A single block longer
// than the cap is truncated to it.
func (s *AnswererService) buildContext(results []domain.QueryResult) string {
	var b strings.Builder
	for _, r := range results {
		block := fmt.Sprintf("[%s, page %d]\n%s\n\n", r.Title, r.Page, r.Content)
		if b.Len()+len(block) > s.maxContextChars {
			if b.Len() > 0 {
				break
			}
			cut := s.maxContextChars
			for cut > 0 && !utf8.RuneStart(block[cut]) {
				cut--
			}
			block = block[:cut]
		}
		b.WriteString(block)
	}
	return strings.TrimSpace(b.String())
}

// buildCitations converts results into citations, deduplicating by
// document title and page.
func buildCitations(results []domain.QueryResult) []domain.Citation {
	seen := make(map[string]bool, len(results))
	citations := make([]domain.Citation, 0, len(results))
	for _, r := range results {
		key := fmt.Sprintf("%s:%d", r.Title, r.Page)
		if seen[key] {
			continue
		}
		seen[key] = true
		citations = append(citations, domain.Citation{
			Title:     r.Title,
			Page:      r.Page,
			Excerpt:   excerpt(r.Content),
			Relevance: r.Similarity,
		})
	}
	return citations
}

func excerpt(content string) string {
	if len(content) <= excerptLength {
		return content
	}
	return strings.TrimSpace(content[:excerptLength]) + "..."
}

func avgSimilarity(results []domain.QueryResult) float64 {
	if len(results) == 0 {
		return 0
	}
	var sum float64
	for _, r := range results {
		sum += r.Similarity
	}
	return sum / float64(len(results))
}
