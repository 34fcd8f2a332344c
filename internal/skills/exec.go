package skills

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// resourceDirs are the skill subdirectories whose files are inlined into the
// execution prompt.
var resourceDirs = []string{"references", "scripts", "assets"}

// ExecuteRequest is what a skill hands to the execution surface.
type ExecuteRequest struct {
	SystemPrompt  string
	Task          string
	AllowedTools  []string
	DelegateAgent string
}

// ExecuteResult is the outcome of running a skill.
type ExecuteResult struct {
	Success bool
	Output  string
	Err     string
}

// ExecuteFunc runs a composed skill prompt against the tool-execution surface.
// Injected at wiring time so the registry stays decoupled from the executor.
type ExecuteFunc func(ctx context.Context, req ExecuteRequest) *ExecuteResult

// SetExecuteFunc installs the execution backend.
func (r *Registry) SetExecuteFunc(fn ExecuteFunc) {
	r.exec.Store(&fn)
}

// ExecuteByName runs the named skill with the given task. The markdown body
// and resource files are read fresh on every execution.
func (r *Registry) ExecuteByName(ctx context.Context, name, task string) (*ExecuteResult, error) {
	skill, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown skill: %s", name)
	}
	if !skill.Enabled {
		return nil, fmt.Errorf("skill disabled: %s", name)
	}
	fnp := r.exec.Load()
	if fnp == nil {
		return nil, fmt.Errorf("skill registry has no execution backend")
	}

	prompt, err := r.composePrompt(skill)
	if err != nil {
		return nil, fmt.Errorf("compose skill %s: %w", name, err)
	}

	return (*fnp)(ctx, ExecuteRequest{
		SystemPrompt:  prompt,
		Task:          task,
		AllowedTools:  skill.Tools,
		DelegateAgent: skill.DelegateAgent,
	}), nil
}

// composePrompt builds the system prompt: a short header, the SKILL.md body,
// then every resource file under its own heading.
func (r *Registry) composePrompt(skill *LoadedSkill) (string, error) {
	raw, err := SafeRead(skill.RootDir, skill.MarkdownPath)
	if err != nil {
		return "", err
	}
	_, body, err := splitFrontMatter(raw)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are executing the %q skill: %s\n\n", skill.Name, skill.Description)
	b.Write(body)

	for _, dir := range resourceDirs {
		files, err := listResourceFiles(filepath.Join(skill.RootDir, dir))
		if err != nil {
			return "", err
		}
		for _, path := range files {
			content, err := SafeRead(skill.RootDir, path)
			if err != nil {
				return "", err
			}
			rel, _ := filepath.Rel(skill.RootDir, path)
			fmt.Fprintf(&b, "\n\n## Resource: %s\n\n%s", filepath.ToSlash(rel), content)
		}
	}

	return b.String(), nil
}

func listResourceFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
