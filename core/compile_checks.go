package core

var (
	_ Registry         = (*AdapterRegistry)(nil)
	_ ProviderResolver = (*Resolver)(nil)
	_ ConfigProvider   = (*CfgxConfigProvider)(nil)
	_ OptionsResolver  = GoOptionsResolver{}
	_ RawConfigLoader  = staticRawConfigLoader{}
)
