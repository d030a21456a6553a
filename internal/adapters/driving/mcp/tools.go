package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the search query to find documents"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	DocumentID string   `json:"document_id"`
	Title      string   `json:"title"`
	URI        string   `json:"uri"`
	Source     string   `json:"source,omitempty"`
	Score      float64  `json:"score"`
	Highlights []string `json:"highlights,omitempty"`
	Content    string   `json:"content,omitempty"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question     string   `json:"question" jsonschema:"the question to answer from indexed documents"`
	MaxDocuments int      `json:"max_documents,omitempty" jsonschema:"maximum documents given to the model (default from settings)"`
	SourceIDs    []string `json:"source_ids,omitempty" jsonschema:"restrict retrieval to these source IDs"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer    string                `json:"answer"`
	Citations []domain.CitationInfo `json:"citations"`
	Sources   []SourceOutput        `json:"sources"`
	Model     string                `json:"model"`
	Warnings  []string              `json:"warnings,omitempty"`
}

// SourceOutput is a cited document in an ask result.
type SourceOutput struct {
	Number     int    `json:"number"`
	DocumentID string `json:"document_id"`
	Title      string `json:"title"`
	URI        string `json:"uri"`
	Source     string `json:"source,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Search across all indexed documents",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "ask",
		Description: "Answer a question from indexed documents. " +
			"The answer cites documents as [[n]](uri) matching the returned sources.",
	}, s.handleAsk)
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}

	opts := domain.SearchOptions{Limit: limit}
	results, err := s.ports.Search.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}

	for i := range results {
		output.Results[i] = SearchResultOutput{
			DocumentID: results[i].Document.ID,
			Title:      results[i].Document.Title,
			URI:        results[i].Document.URI,
			Source:     results[i].SourceName,
			Score:      results[i].Score,
			Highlights: results[i].Highlights,
			Content:    results[i].Chunk.Content,
		}
	}

	return nil, output, nil
}

// handleAsk runs a question to completion and returns the cited answer.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	events, err := s.ports.Answer.Ask(ctx, input.Question, domain.AnswerOptions{
		MaxDocuments: input.MaxDocuments,
		SourceIDs:    input.SourceIDs,
	})
	if err != nil {
		return nil, AskOutput{}, err
	}

	answer, err := awaitAnswer(events)
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Answer:    answer.Text,
		Citations: answer.Citations,
		Sources:   make([]SourceOutput, len(answer.Sources)),
		Model:     answer.Model,
		Warnings:  answer.Warnings,
	}
	if output.Citations == nil {
		output.Citations = []domain.CitationInfo{}
	}
	for i, src := range answer.Sources {
		output.Sources[i] = SourceOutput{
			Number:     src.DisplayNumber,
			DocumentID: src.DocumentID,
			Title:      src.Title,
			URI:        src.URI,
			Source:     src.SourceName,
		}
	}

	return nil, output, nil
}

// awaitAnswer drains an answer stream and returns its completed answer.
func awaitAnswer(events <-chan domain.AnswerEvent) (*domain.Answer, error) {
	var answer *domain.Answer
	var failure error
	for ev := range events {
		switch ev.Type {
		case domain.AnswerEventDone:
			answer = ev.Answer
		case domain.AnswerEventError:
			failure = fmt.Errorf("answer: %s", ev.Error)
		}
	}
	if failure != nil {
		return nil, failure
	}
	if answer == nil {
		return nil, ErrIncompleteAnswer
	}
	return answer, nil
}
