package profile

import "time"

// Profile is the static per-site tuning for one host page: where to find
// the content container, how the site encodes conversation routes, and
// the timing knobs for navigation detection and container acquisition.
// It also carries first-run feature defaults and opaque per-feature
// options handed to Init.
type Profile struct {
	// ContainerSelector locates the primary message-list container.
	ContainerSelector string

	// ConversationPrefix is the path prefix the conversation id follows.
	ConversationPrefix string

	// PollInterval drives the navigation polling safety net; Polling
	// false disables it even when the history hook fails.
	PollInterval time.Duration
	Polling      bool

	// SettleDelay is the pause between a detected navigation and the
	// content watch re-arm.
	SettleDelay time.Duration

	// Backoff tuning for container acquisition.
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxAttempts int

	// Debounce is the mutation coalescing quiet period.
	Debounce time.Duration

	// FeatureDefaults seeds per-feature enabled flags on first run.
	FeatureDefaults map[string]bool

	// FeatureOptions carries each feature's option attributes verbatim.
	FeatureOptions map[string]map[string]any
}

// Default returns the built-in profile used when no profile file is
// given. Selectors target the stock chat page layout.
func Default() *Profile {
	return &Profile{
		ContainerSelector:  `main [data-testid="conversation-turns"]`,
		ConversationPrefix: "/c/",
		PollInterval:       time.Second,
		Polling:            true,
		SettleDelay:        500 * time.Millisecond,
		BaseDelay:          200 * time.Millisecond,
		MaxDelay:           5 * time.Second,
		MaxAttempts:        30,
		Debounce:           150 * time.Millisecond,
		FeatureDefaults: map[string]bool{
			"timeline": true,
			"folders":  true,
			"prompts":  true,
			"export":   true,
			"width":    false,
			"tabtitle": true,
			"formula":  false,
		},
		FeatureOptions: make(map[string]map[string]any),
	}
}

// Options returns the option attributes for a feature key, or nil.
func (p *Profile) Options(key string) map[string]any {
	return p.FeatureOptions[key]
}
