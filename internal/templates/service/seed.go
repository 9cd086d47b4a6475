package service

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed seed/default_templates.yaml
var defaultTemplatesYAML []byte

type seedFile struct {
	Templates []seedTemplate `yaml:"templates"`
}

type seedTemplate struct {
	Name    string `yaml:"name"`
	Content string `yaml:"content"`
	Default bool   `yaml:"default"`
}

func parseSeed(data []byte) ([]seedTemplate, error) {
	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse template seed: %w", err)
	}
	out := make([]seedTemplate, 0, len(file.Templates))
	hasDefault := false
	for _, t := range file.Templates {
		t.Name = strings.TrimSpace(t.Name)
		t.Content = strings.TrimSpace(t.Content)
		if t.Name == "" || t.Content == "" {
			continue
		}
		if t.Default {
			if hasDefault {
				t.Default = false
			}
			hasDefault = true
		}
		out = append(out, t)
	}
	return out, nil
}
