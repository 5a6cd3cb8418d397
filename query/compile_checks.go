package query

import (
	"github.com/goliatone/go-capability/core"
	gocmd "github.com/goliatone/go-command"
)

var (
	_ gocmd.Querier[ResolveProvidersMessage, []string]                = (*ResolveProvidersQuery)(nil)
	_ gocmd.Querier[ListProvidersMessage, []string]                   = (*ListProvidersQuery)(nil)
	_ gocmd.Querier[ListActivityMessage, core.InvocationActivityPage] = (*ListActivityQuery)(nil)
)
