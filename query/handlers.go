package query

import (
	"context"

	"github.com/goliatone/go-capability/core"
)

type ProviderReader interface {
	Resolve(capability core.Capability, rctx core.ResolutionContext) ([]string, error)
	ListProviders(capability core.Capability) []string
}

type ActivityReader interface {
	ListActivity(ctx context.Context, filter core.InvocationActivityFilter) (core.InvocationActivityPage, error)
}

type ResolveProvidersQuery struct {
	reader ProviderReader
}

func NewResolveProvidersQuery(reader ProviderReader) *ResolveProvidersQuery {
	return &ResolveProvidersQuery{reader: reader}
}

func (q *ResolveProvidersQuery) Query(_ context.Context, msg ResolveProvidersMessage) ([]string, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: provider reader is required")
	}
	return q.reader.Resolve(msg.Capability, msg.Context)
}

type ListProvidersQuery struct {
	reader ProviderReader
}

func NewListProvidersQuery(reader ProviderReader) *ListProvidersQuery {
	return &ListProvidersQuery{reader: reader}
}

func (q *ListProvidersQuery) Query(_ context.Context, msg ListProvidersMessage) ([]string, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: provider reader is required")
	}
	return q.reader.ListProviders(msg.Capability), nil
}

type ListActivityQuery struct {
	reader ActivityReader
}

func NewListActivityQuery(reader ActivityReader) *ListActivityQuery {
	return &ListActivityQuery{reader: reader}
}

func (q *ListActivityQuery) Query(ctx context.Context, msg ListActivityMessage) (core.InvocationActivityPage, error) {
	if q == nil || q.reader == nil {
		return core.InvocationActivityPage{}, queryDependencyError("query: activity reader is required")
	}
	return q.reader.ListActivity(ctx, msg.Filter)
}
