package pipeline

import (
	"context"
	"sync"

	"github.com/sells-group/contacts-cli/pkg/anthropic"
	"github.com/sells-group/contacts-cli/pkg/firecrawl"
	"github.com/sells-group/contacts-cli/pkg/perplexity"
)

// mockFetcher implements fetcher.Fetcher for testing.
type mockFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	errs  map[string]error
	calls []string
}

func (m *mockFetcher) FetchHTML(_ context.Context, url string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, url)
	m.mu.Unlock()

	if err, ok := m.errs[url]; ok {
		return "", err
	}
	return m.pages[url], nil
}

func (m *mockFetcher) fetched() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// mockAnthropicClient implements anthropic.Client for testing.
type mockAnthropicClient struct {
	mu       sync.Mutex
	text     string
	err      error
	requests []anthropic.MessageRequest
}

func (m *mockAnthropicClient) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: m.text}},
	}, nil
}

func (m *mockAnthropicClient) recorded() []anthropic.MessageRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]anthropic.MessageRequest(nil), m.requests...)
}

// mockPerplexityClient implements perplexity.Client for testing. respond
// picks the reply per request so tests can vary by prompt or field set.
type mockPerplexityClient struct {
	mu       sync.Mutex
	respond  func(req perplexity.ChatCompletionRequest) (string, error)
	requests []perplexity.ChatCompletionRequest
}

func (m *mockPerplexityClient) ChatCompletion(_ context.Context, req perplexity.ChatCompletionRequest) (*perplexity.ChatCompletionResponse, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	text, err := m.respond(req)
	if err != nil {
		return nil, err
	}
	return &perplexity.ChatCompletionResponse{
		Choices: []perplexity.Choice{{Message: perplexity.Message{Role: "assistant", Content: text}}},
	}, nil
}

func (m *mockPerplexityClient) recorded() []perplexity.ChatCompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]perplexity.ChatCompletionRequest(nil), m.requests...)
}

// mockFirecrawlClient implements firecrawl.Client for testing.
type mockFirecrawlClient struct {
	mu          sync.Mutex
	batchErr    error
	batchID     string
	status      *firecrawl.BatchScrapeStatusResponse
	scrapePages map[string]string
	scrapeCalls []string
	batchURLs   []string
}

func (m *mockFirecrawlClient) Scrape(_ context.Context, req firecrawl.ScrapeRequest) (*firecrawl.ScrapeResponse, error) {
	m.mu.Lock()
	m.scrapeCalls = append(m.scrapeCalls, req.URL)
	m.mu.Unlock()

	return &firecrawl.ScrapeResponse{
		Success: true,
		Data:    firecrawl.PageData{URL: req.URL, Markdown: m.scrapePages[req.URL]},
	}, nil
}

func (m *mockFirecrawlClient) BatchScrape(_ context.Context, req firecrawl.BatchScrapeRequest) (*firecrawl.BatchScrapeResponse, error) {
	m.mu.Lock()
	m.batchURLs = append(m.batchURLs, req.URLs...)
	m.mu.Unlock()

	if m.batchErr != nil {
		return nil, m.batchErr
	}
	return &firecrawl.BatchScrapeResponse{Success: true, ID: m.batchID}, nil
}

func (m *mockFirecrawlClient) GetBatchScrapeStatus(_ context.Context, _ string) (*firecrawl.BatchScrapeStatusResponse, error) {
	return m.status, nil
}

func (m *mockFirecrawlClient) scraped() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.scrapeCalls...)
}
