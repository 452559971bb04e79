// Package prompts provides a loader for externalized LLM prompt templates.
// Prompts are stored as JSON files and embedded at compile time.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"sync"
)

//go:embed *.json
var promptFiles embed.FS

// Task identifies one fixed prompt template.
type Task string

// Task constants, one per template
const (
	TaskAnalyzeResume        Task = "analyze-resume"
	TaskAnalyzeJob           Task = "analyze-job"
	TaskSuggestCustomization Task = "suggest-customization"
	TaskMatchJob             Task = "match-job"
	TaskGenerateCoverLetter  Task = "generate-cover-letter"
	TaskRewriteResume        Task = "rewrite-resume"
)

// Placeholder names used by the templates
const (
	KeyResume             = "Resume"
	KeyJob                = "Job"
	KeyFormatInstructions = "FormatInstructions"
	KeyResumeAnalysis     = "ResumeAnalysis"
	KeyJobAnalysis        = "JobAnalysis"
	KeyCustomization      = "Customization"
	KeyCandidateName      = "CandidateName"
	KeyCompanyName        = "CompanyName"
)

// taskFiles maps each task to the prompt file holding its template
var taskFiles = map[Task]string{
	TaskAnalyzeResume:        "analysis.json",
	TaskAnalyzeJob:           "analysis.json",
	TaskSuggestCustomization: "analysis.json",
	TaskMatchJob:             "analysis.json",
	TaskGenerateCoverLetter:  "generation.json",
	TaskRewriteResume:        "generation.json",
}

// placeholderPattern matches {{.Key}} placeholders
var placeholderPattern = regexp.MustCompile(`\{\{\.([A-Za-z][A-Za-z0-9]*)\}\}`)

// cache stores parsed prompt files to avoid repeated JSON parsing
var (
	cache   = make(map[string]map[string]string)
	cacheMu sync.RWMutex
)

// MissingValueError is returned when a template placeholder has no value.
type MissingValueError struct {
	Task Task
	Key  string
}

func (e *MissingValueError) Error() string {
	return fmt.Sprintf("prompt %s: missing value for %q", e.Task, e.Key)
}

// Get retrieves a prompt by filename and key.
// The filename should not include the path (e.g., "analysis.json").
// Returns an error if the file or key is not found.
func Get(filename, key string) (string, error) {
	prompts, err := loadFile(filename)
	if err != nil {
		return "", err
	}

	prompt, exists := prompts[key]
	if !exists {
		return "", fmt.Errorf("prompt key %q not found in %s", key, filename)
	}

	return prompt, nil
}

// Template returns the raw template for a task.
func Template(task Task) (string, error) {
	filename, ok := taskFiles[task]
	if !ok {
		return "", fmt.Errorf("unknown prompt task %q", task)
	}
	return Get(filename, string(task))
}

// Placeholders returns the sorted, de-duplicated placeholder keys of a template.
func Placeholders(template string) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, m := range placeholderPattern.FindAllStringSubmatch(template, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			keys = append(keys, m[1])
		}
	}
	sort.Strings(keys)
	return keys
}

// Render fills the template for task with values.
// Every placeholder must have a value; extra values are ignored.
func Render(task Task, values map[string]string) (string, error) {
	template, err := Template(task)
	if err != nil {
		return "", err
	}

	for _, key := range Placeholders(template) {
		if _, ok := values[key]; !ok {
			return "", &MissingValueError{Task: task, Key: key}
		}
	}

	// Single pass so that substituted text is never re-scanned for placeholders.
	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		key := placeholderPattern.FindStringSubmatch(match)[1]
		return values[key]
	}), nil
}

// loadFile loads and caches a prompt file.
func loadFile(filename string) (map[string]string, error) {
	cacheMu.RLock()
	if prompts, exists := cache[filename]; exists {
		cacheMu.RUnlock()
		return prompts, nil
	}
	cacheMu.RUnlock()

	data, err := promptFiles.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file %s: %w", filename, err)
	}

	var prompts map[string]string
	if err := json.Unmarshal(data, &prompts); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file %s: %w", filename, err)
	}

	cacheMu.Lock()
	cache[filename] = prompts
	cacheMu.Unlock()

	return prompts, nil
}
