package profile

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/chatgear/internal/ctxlog"
)

// fileRoot mirrors the top-level blocks of a profile file.
type fileRoot struct {
	Site       *siteBlock      `hcl:"site,block"`
	Navigation *navBlock       `hcl:"navigation,block"`
	Watch      *watchBlock     `hcl:"watch,block"`
	Features   []*featureBlock `hcl:"feature,block"`
}

type siteBlock struct {
	ContainerSelector  string `hcl:"container_selector"`
	ConversationPrefix string `hcl:"conversation_path_prefix,optional"`
}

type navBlock struct {
	PollInterval string `hcl:"poll_interval,optional"`
	Polling      *bool  `hcl:"polling,optional"`
	SettleDelay  string `hcl:"settle_delay,optional"`
}

type watchBlock struct {
	BaseDelay   string `hcl:"base_delay,optional"`
	MaxDelay    string `hcl:"max_delay,optional"`
	MaxAttempts int    `hcl:"max_attempts,optional"`
	Debounce    string `hcl:"debounce,optional"`
}

type featureBlock struct {
	Name    string   `hcl:"name,label"`
	Enabled *bool    `hcl:"enabled,optional"`
	Remain  hcl.Body `hcl:",remain"`
}

// Load parses a profile file and overlays it on the built-in defaults.
// An empty path returns the defaults unchanged.
func Load(ctx context.Context, path string) (*Profile, error) {
	p := Default()
	if path == "" {
		return p, nil
	}
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading site profile.", "path", path)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse profile %s: %w", path, diags)
	}

	var root fileRoot
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode profile %s: %w", path, diags)
	}

	if root.Site != nil {
		p.ContainerSelector = root.Site.ContainerSelector
		if root.Site.ConversationPrefix != "" {
			p.ConversationPrefix = root.Site.ConversationPrefix
		}
	}
	if root.Navigation != nil {
		if err := overlayDuration(&p.PollInterval, root.Navigation.PollInterval); err != nil {
			return nil, fmt.Errorf("invalid poll_interval: %w", err)
		}
		if err := overlayDuration(&p.SettleDelay, root.Navigation.SettleDelay); err != nil {
			return nil, fmt.Errorf("invalid settle_delay: %w", err)
		}
		if root.Navigation.Polling != nil {
			p.Polling = *root.Navigation.Polling
		}
	}
	if root.Watch != nil {
		if err := overlayDuration(&p.BaseDelay, root.Watch.BaseDelay); err != nil {
			return nil, fmt.Errorf("invalid base_delay: %w", err)
		}
		if err := overlayDuration(&p.MaxDelay, root.Watch.MaxDelay); err != nil {
			return nil, fmt.Errorf("invalid max_delay: %w", err)
		}
		if err := overlayDuration(&p.Debounce, root.Watch.Debounce); err != nil {
			return nil, fmt.Errorf("invalid debounce: %w", err)
		}
		if root.Watch.MaxAttempts > 0 {
			p.MaxAttempts = root.Watch.MaxAttempts
		}
	}

	for _, fb := range root.Features {
		if fb.Enabled != nil {
			p.FeatureDefaults[fb.Name] = *fb.Enabled
		}
		opts, err := decodeOptions(fb.Remain)
		if err != nil {
			return nil, fmt.Errorf("invalid options for feature %q: %w", fb.Name, err)
		}
		if len(opts) > 0 {
			p.FeatureOptions[fb.Name] = opts
		}
	}

	logger.Debug("Site profile loaded.", "features", len(root.Features))
	return p, nil
}

// decodeOptions flattens the remaining attributes of a feature block into
// a plain Go map the feature receives verbatim.
func decodeOptions(body hcl.Body) (map[string]any, error) {
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}
	if len(attrs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(attrs))
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, diags
		}
		goVal, err := ctyToGo(val)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", name, err)
		}
		out[name] = goVal
	}
	return out, nil
}

func overlayDuration(dst *time.Duration, raw string) error {
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}
