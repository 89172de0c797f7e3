package settings

// SchemaVersion is stamped into every persisted snapshot. Snapshots with an
// older or missing version get defaults filled for any missing fields;
// full migration logic lives with the settings UI, not here.
const SchemaVersion = 2

// Snapshot is the persisted configuration: one enabled flag per feature
// key plus the non-feature preferences the core passes through opaquely.
type Snapshot struct {
	Locale        string          `json:"localePreference"`
	Features      map[string]bool `json:"perFeatureEnabledFlags"`
	DisplayWidth  int             `json:"displayWidthPreference"`
	SchemaVersion int             `json:"schemaVersion"`
}

// Clone returns a deep copy, so handlers can mutate a snapshot without
// racing readers of the original.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Features = make(map[string]bool, len(s.Features))
	for k, v := range s.Features {
		out.Features[k] = v
	}
	return out
}

// Default returns a first-run snapshot with the given feature flags.
func Default(flags map[string]bool) Snapshot {
	s := Snapshot{
		Locale:        "en",
		Features:      make(map[string]bool, len(flags)),
		SchemaVersion: SchemaVersion,
	}
	for k, v := range flags {
		s.Features[k] = v
	}
	return s
}
