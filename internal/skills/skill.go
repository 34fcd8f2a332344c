// Package skills implements the filesystem-backed skill registry: directories
// holding a SKILL.md with YAML front-matter, matched against inbound text and
// executed through the shared tool-execution surface.
package skills

import (
	"fmt"
	"regexp"
)

// Skill sources.
const (
	SourceBundled  = "bundled"
	SourceImported = "imported"
)

// RecognizedChannels are the channel values a skill may declare.
var RecognizedChannels = map[string]bool{
	"sms":       true,
	"whatsapp":  true,
	"email":     true,
	"scheduler": true,
}

var nameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// LoadedSkill is one discovered skill. The registry holds metadata and paths
// only; the markdown body and resources are read at execution time.
type LoadedSkill struct {
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	MarkdownPath  string          `json:"markdownPath"`
	RootDir       string          `json:"rootDir"`
	Channels      map[string]bool `json:"channels"`
	Tools         []string        `json:"tools"`
	MatchHints    []string        `json:"matchHints"`
	Enabled       bool            `json:"enabled"`
	Source        string          `json:"source"` // "bundled" or "imported"
	DelegateAgent string          `json:"delegateAgent,omitempty"`
}

// RoutableFrom reports whether the skill accepts the given channel.
// A skill declaring no channels is routable from all of them.
func (s *LoadedSkill) RoutableFrom(channel string) bool {
	if len(s.Channels) == 0 {
		return true
	}
	return s.Channels[channel]
}

// LoadError records one skill directory that failed to load.
type LoadError struct {
	Dir string
	Err error
}

func (e LoadError) Error() string {
	return fmt.Sprintf("skill %s: %v", e.Dir, e.Err)
}

// frontMatter is the YAML header of a SKILL.md file.
type frontMatter struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Metadata    struct {
		Hermes struct {
			Channels      []string `yaml:"channels"`
			Tools         []string `yaml:"tools"`
			Match         []string `yaml:"match"`
			Enabled       *bool    `yaml:"enabled"`
			DelegateAgent string   `yaml:"delegateAgent"`
		} `yaml:"hermes"`
	} `yaml:"metadata"`
}

func (fm *frontMatter) validate() error {
	if !nameRe.MatchString(fm.Name) {
		return fmt.Errorf("invalid skill name %q (want kebab-case)", fm.Name)
	}
	if fm.Description == "" {
		return fmt.Errorf("skill %q: description is required", fm.Name)
	}
	for _, ch := range fm.Metadata.Hermes.Channels {
		if !RecognizedChannels[ch] {
			return fmt.Errorf("skill %q: unrecognized channel %q", fm.Name, ch)
		}
	}
	return nil
}
