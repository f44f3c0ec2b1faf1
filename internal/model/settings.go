package model

// Settings holds user preferences.
type Settings struct {
	SystemPrompt        string   `json:"systemPrompt"`
	AutoAssembleEnabled bool     `json:"autoAssembleEnabled"`
	EnabledDomains      []string `json:"enabledDomains"`
}

// DefaultSettings returns the settings written on first access.
func DefaultSettings() Settings {
	return Settings{
		SystemPrompt:        "",
		AutoAssembleEnabled: true,
		EnabledDomains:      []string{},
	}
}

// AllowsDomain reports whether automatic assembly should run for domain.
// An empty EnabledDomains list allows every domain.
func (s Settings) AllowsDomain(domain string) bool {
	if !s.AutoAssembleEnabled {
		return false
	}
	if len(s.EnabledDomains) == 0 {
		return true
	}
	for _, d := range s.EnabledDomains {
		if d == domain {
			return true
		}
	}
	return false
}

// SettingsPatch lists the editable settings. Nil fields are left unchanged.
type SettingsPatch struct {
	SystemPrompt        *string  `json:"systemPrompt,omitempty"`
	AutoAssembleEnabled *bool    `json:"autoAssembleEnabled,omitempty"`
	EnabledDomains      []string `json:"enabledDomains,omitempty"`
}

// Apply merges the patch over s field by field.
func (p SettingsPatch) Apply(s *Settings) {
	if p.SystemPrompt != nil {
		s.SystemPrompt = *p.SystemPrompt
	}
	if p.AutoAssembleEnabled != nil {
		s.AutoAssembleEnabled = *p.AutoAssembleEnabled
	}
	if p.EnabledDomains != nil {
		s.EnabledDomains = NormalizeTags(p.EnabledDomains)
	}
}

// Summary is the last chat summary recorded for a domain.
type Summary struct {
	LastSummary string `json:"lastSummary"`
	UpdatedAt   int64  `json:"updatedAt"`
}
