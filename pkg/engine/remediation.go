package engine

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

// Playbook is a remediation template for one check
type Playbook struct {
	CheckID     string   `yaml:"check_id"`
	Name        string   `yaml:"name"`
	Risk        string   `yaml:"risk"`
	Standard    string   `yaml:"standard"`
	Steps       []string `yaml:"steps"`
	Validation  string   `yaml:"validation"`
	Variables   []string `yaml:"variables"`
	Description string   `yaml:"description"`
}

// RemediationEngine manages remediation playbooks keyed by check ID
type RemediationEngine struct {
	Playbooks map[string]Playbook
}

// NewRemediationEngine creates a new remediation engine
func NewRemediationEngine() *RemediationEngine {
	return &RemediationEngine{
		Playbooks: make(map[string]Playbook),
	}
}

// LoadPlaybooks reads YAML playbooks from a directory
func (e *RemediationEngine) LoadPlaybooks(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() && (filepath.Ext(entry.Name()) == ".yaml" || filepath.Ext(entry.Name()) == ".yml") {
			path := filepath.Join(dir, entry.Name())
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			var p Playbook
			if err := yaml.Unmarshal(data, &p); err != nil {
				return fmt.Errorf("failed to parse %s: %w", entry.Name(), err)
			}
			if p.CheckID == "" {
				return fmt.Errorf("%s: missing check_id", entry.Name())
			}
			e.Playbooks[p.CheckID] = p
		}
	}
	return nil
}

// ListPlaybooks returns "CHECK-ID: name" entries sorted by check ID
func (e *RemediationEngine) ListPlaybooks() []string {
	list := make([]string, 0, len(e.Playbooks))
	for _, p := range e.Playbooks {
		list = append(list, fmt.Sprintf("%s: %s", p.CheckID, p.Name))
	}
	sort.Strings(list)
	return list
}

// GeneratePlan renders the playbook for a failed finding. Templates see the
// finding fields plus vars, e.g. {{.Source}} or {{.Vars.backup_host}}.
func (e *RemediationEngine) GeneratePlan(f Finding, vars map[string]string) (string, error) {
	p, ok := e.Playbooks[f.TestID]
	if !ok {
		return "", fmt.Errorf("playbook not found: %s", f.TestID)
	}

	for _, requiredVar := range p.Variables {
		if _, exists := vars[requiredVar]; !exists {
			return "", fmt.Errorf("missing required variable: %s", requiredVar)
		}
	}

	data := struct {
		Finding
		Source string
		Vars   map[string]string
	}{
		Finding: f,
		Source:  strings.Join(f.Evidence, ", "),
		Vars:    vars,
	}

	var sb strings.Builder
	sb.WriteString("[FIX PLAN]\n")
	sb.WriteString(fmt.Sprintf("Check: %s (%s)\n", f.TestID, f.SubStrategy))
	sb.WriteString(fmt.Sprintf("Priority: %s\n", f.Priority))
	if p.Risk != "" {
		sb.WriteString(fmt.Sprintf("Risk: %s\n", p.Risk))
	}
	if p.Standard != "" {
		sb.WriteString(fmt.Sprintf("Standard: %s\n", p.Standard))
	}
	if p.Description != "" {
		sb.WriteString("\n" + strings.TrimSpace(p.Description) + "\n")
	}
	sb.WriteString("\nSteps:\n")

	for i, step := range p.Steps {
		rendered, err := renderString(fmt.Sprintf("step%d", i+1), step, data)
		if err != nil {
			return "", err
		}
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, rendered))
	}

	if p.Validation != "" {
		validation, err := renderString("validation", p.Validation, data)
		if err != nil {
			return "", err
		}
		sb.WriteString("\nValidation:\n")
		sb.WriteString(validation + "\n")
	}

	return sb.String(), nil
}

func renderString(name, tmplStr string, data any) (string, error) {
	t, err := template.New(name).Option("missingkey=error").Parse(tmplStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return buf.String(), nil
}
