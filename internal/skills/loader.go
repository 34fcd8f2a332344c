package skills

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"

	"gopkg.in/yaml.v3"
)

// DefaultConfidenceThreshold is the minimum hint-match confidence.
const DefaultConfidenceThreshold = 0.3

// Config configures the skill registry.
type Config struct {
	BundledDir          string
	ImportedDir         string
	ConfidenceThreshold float64
}

// set is one immutable snapshot of loaded skills.
type set struct {
	byName map[string]*LoadedSkill
	order  []string // discovery order, imported after bundled
	errors []LoadError
}

// Registry holds the current skill snapshot. Lookups are lock-free reads;
// Rebuild atomically swaps in a fresh snapshot.
type Registry struct {
	cfg     Config
	current atomic.Pointer[set]
	exec    atomic.Pointer[ExecuteFunc]
}

// NewRegistry scans both roots and builds the initial snapshot.
// Individual skill failures are collected, never fatal.
func NewRegistry(cfg Config) *Registry {
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	r := &Registry{cfg: cfg}
	r.current.Store(scan(cfg))
	return r
}

// Rebuild re-scans the skill roots and swaps the snapshot.
func (r *Registry) Rebuild() {
	r.current.Store(scan(r.cfg))
	slog.Info("skill registry rebuilt", "skills", len(r.current.Load().order))
}

// Get returns a skill by name.
func (r *Registry) Get(name string) (*LoadedSkill, bool) {
	s, ok := r.current.Load().byName[name]
	return s, ok
}

// List returns all loaded skills in discovery order.
func (r *Registry) List() []*LoadedSkill {
	snap := r.current.Load()
	out := make([]*LoadedSkill, 0, len(snap.order))
	for _, name := range snap.order {
		out = append(out, snap.byName[name])
	}
	return out
}

// LoadErrors returns the load failures from the current snapshot.
func (r *Registry) LoadErrors() []LoadError {
	return r.current.Load().errors
}

func scan(cfg Config) *set {
	snap := &set{byName: make(map[string]*LoadedSkill)}
	scanRoot(snap, cfg.BundledDir, SourceBundled)
	scanRoot(snap, cfg.ImportedDir, SourceImported)
	return snap
}

func scanRoot(snap *set, root, source string) {
	if root == "" {
		return
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		if !os.IsNotExist(err) {
			snap.errors = append(snap.errors, LoadError{Dir: root, Err: err})
		}
		return
	}

	// Deterministic discovery order.
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, dirName := range names {
		dir := filepath.Join(root, dirName)
		mdPath := filepath.Join(dir, "SKILL.md")
		if _, err := os.Stat(mdPath); err != nil {
			continue // not a skill directory
		}

		skill, err := loadSkill(dir, mdPath, source)
		if err != nil {
			snap.errors = append(snap.errors, LoadError{Dir: dir, Err: err})
			slog.Warn("skipping skill", "dir", dir, "error", err)
			continue
		}

		// Imported skills override bundled skills of the same name.
		if prev, exists := snap.byName[skill.Name]; exists {
			if skill.Source == SourceImported && prev.Source == SourceBundled {
				snap.byName[skill.Name] = skill
			}
			continue
		}
		snap.byName[skill.Name] = skill
		snap.order = append(snap.order, skill.Name)
	}
}

func loadSkill(dir, mdPath, source string) (*LoadedSkill, error) {
	raw, err := os.ReadFile(mdPath)
	if err != nil {
		return nil, err
	}

	fm, _, err := splitFrontMatter(raw)
	if err != nil {
		return nil, err
	}
	if err := fm.validate(); err != nil {
		return nil, err
	}

	channels := make(map[string]bool, len(fm.Metadata.Hermes.Channels))
	for _, ch := range fm.Metadata.Hermes.Channels {
		channels[ch] = true
	}

	enabled := true
	if fm.Metadata.Hermes.Enabled != nil {
		enabled = *fm.Metadata.Hermes.Enabled
	}

	return &LoadedSkill{
		Name:          fm.Name,
		Description:   fm.Description,
		MarkdownPath:  mdPath,
		RootDir:       dir,
		Channels:      channels,
		Tools:         fm.Metadata.Hermes.Tools,
		MatchHints:    fm.Metadata.Hermes.Match,
		Enabled:       enabled,
		Source:        source,
		DelegateAgent: fm.Metadata.Hermes.DelegateAgent,
	}, nil
}

var frontMatterDelim = []byte("---")

// splitFrontMatter separates the YAML header from the markdown body.
func splitFrontMatter(raw []byte) (*frontMatter, []byte, error) {
	trimmed := bytes.TrimLeft(raw, "\r\n \t")
	if !bytes.HasPrefix(trimmed, frontMatterDelim) {
		return nil, nil, fmt.Errorf("missing front-matter")
	}
	rest := trimmed[len(frontMatterDelim):]
	end := bytes.Index(rest, []byte("\n---"))
	if end < 0 {
		return nil, nil, fmt.Errorf("unterminated front-matter")
	}

	var fm frontMatter
	if err := yaml.Unmarshal(rest[:end], &fm); err != nil {
		return nil, nil, fmt.Errorf("parse front-matter: %w", err)
	}

	body := rest[end+len("\n---"):]
	body = bytes.TrimPrefix(body, []byte("\r"))
	body = bytes.TrimPrefix(body, []byte("\n"))
	return &fm, body, nil
}
