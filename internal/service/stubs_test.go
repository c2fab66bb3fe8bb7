package service_test

import (
	"context"
	"sync"
	"time"

	"touchline/backend/internal/model"
	"touchline/backend/internal/service"
	"touchline/backend/internal/service/ai"
)

type stubConfigSource struct {
	cfg ai.Config
	err error
}

func (s stubConfigSource) AIConfig(context.Context) (ai.Config, error) {
	return s.cfg, s.err
}

type stubProvider struct {
	mu       sync.Mutex
	response string
	err      error
	prompts  []string
	inputs   []string
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Test(context.Context) (string, error) { return "ok", nil }

func (p *stubProvider) Complete(_ context.Context, systemPrompt, content string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prompts = append(p.prompts, systemPrompt)
	p.inputs = append(p.inputs, content)
	return p.response, p.err
}

func (p *stubProvider) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.inputs)
}

func providerFactory(p ai.Provider) ai.Factory {
	return func(ai.Config) (ai.Provider, error) { return p, nil }
}

// stubTranslator answers per target language and records call order.
type stubTranslator struct {
	mu      sync.Mutex
	calls   []string
	results map[string]service.TranslateResult
	errs    map[string]error
}

func (s *stubTranslator) Translate(_ context.Context, fields model.TranslationFields, _, to string) (service.TranslateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, to)
	if err := s.errs[to]; err != nil {
		return service.TranslateResult{}, err
	}
	if res, ok := s.results[to]; ok {
		return res, nil
	}
	out := fields
	out.Title = "[" + to + "] " + fields.Title
	return service.TranslateResult{Fields: out}, nil
}

func (s *stubTranslator) order() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

type stubSubmitter struct {
	mu       sync.Mutex
	articles []string
	err      error
}

func (s *stubSubmitter) Submit(articleID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.articles = append(s.articles, articleID)
	return "job-" + articleID, nil
}

func (s *stubSubmitter) submitted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.articles...)
}

func noSleep(context.Context, time.Duration) {}
