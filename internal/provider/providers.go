package provider

// Providers is the per-platform set of capability providers.
type Providers struct {
	File    *FileProvider
	Service *ServiceProvider
}
