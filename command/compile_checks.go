package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[InvokeCapabilityMessage] = (*InvokeCapabilityCommand)(nil)
	_ gocmd.Commander[ReloadPolicyMessage]     = (*ReloadPolicyCommand)(nil)
	_ gocmd.Commander[RegisterAdapterMessage]  = (*RegisterAdapterCommand)(nil)
)
