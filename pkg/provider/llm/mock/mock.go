// Package mock provides a scripted [llm.Provider] for tests of the refine
// stage.
//
//	p := &mock.Provider{
//	    CompleteResponse: &llm.CompletionResponse{Content: "A causa da filosofia"},
//	}
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/termfix/pkg/provider/llm"
	"github.com/MrWong99/termfix/pkg/types"
)

// CompleteCall is one recorded Complete invocation.
type CompleteCall struct {
	Ctx context.Context
	Req llm.CompletionRequest
}

// Provider answers Complete from CompleteFunc when set, otherwise with
// CompleteResponse and CompleteErr. Configure it before use.
type Provider struct {
	CompleteResponse *llm.CompletionResponse
	CompleteErr      error
	CompleteFunc     func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error)

	// TokenCount and CountTokensErr are returned by CountTokens.
	TokenCount     int
	CountTokensErr error

	// ModelCapabilities is returned by Capabilities.
	ModelCapabilities types.ModelCapabilities

	mu sync.Mutex
	// CompleteCalls lists Complete invocations in order. Read it after the
	// code under test has returned.
	CompleteCalls []CompleteCall
}

// Complete implements [llm.Provider].
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	p.CompleteCalls = append(p.CompleteCalls, CompleteCall{Ctx: ctx, Req: req})
	p.mu.Unlock()

	if p.CompleteFunc != nil {
		return p.CompleteFunc(ctx, req)
	}
	return p.CompleteResponse, p.CompleteErr
}

// CountTokens implements [llm.Provider].
func (p *Provider) CountTokens([]types.Message) (int, error) {
	return p.TokenCount, p.CountTokensErr
}

// Capabilities implements [llm.Provider].
func (p *Provider) Capabilities() types.ModelCapabilities {
	return p.ModelCapabilities
}

// Calls returns the number of Complete invocations so far.
func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.CompleteCalls)
}

var _ llm.Provider = (*Provider)(nil)
