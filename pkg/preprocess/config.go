package preprocess

// EngineConfig holds all configuration options for the substitution engine.
type EngineConfig struct {
	// DefaultExtension is appended to include names whose literal path does
	// not resolve to a file.
	DefaultExtension string

	// IconURLTemplate is the base URL the bootstrap_icon function fetches
	// from; %s is replaced with the icon filename.
	IconURLTemplate string

	// MaxIncludeDepth bounds include expansion depth. A page whose includes
	// nest (or self-reference) past this limit fails with a
	// CyclicIncludeError instead of recursing until memory runs out.
	MaxIncludeDepth int
}

// DefaultEngineConfig returns an EngineConfig with safe default values.
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		DefaultExtension: ".html",
		IconURLTemplate:  "https://icons.getbootstrap.com/assets/icons/%s",
		MaxIncludeDepth:  64,
	}
}
