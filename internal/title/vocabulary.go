package title

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed vocabulary.yaml
var vocabularyYAML []byte

// Vocabulary is the fixed word material titles are assembled from.
type Vocabulary struct {
	Actions    []string `yaml:"actions"`
	Connectors []string `yaml:"connectors"`
	Templates  []string `yaml:"templates"`
}

var templatePlaceholders = []string{"{subject}", "{action}", "{obj1}", "{obj2}", "{context}"}

// DefaultVocabulary returns the embedded vocabulary.
func DefaultVocabulary() *Vocabulary {
	v, err := parseVocabulary(vocabularyYAML)
	if err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to parse embedded vocabulary.yaml: " + err.Error())
	}
	return v
}

// LoadVocabulary reads a vocabulary file. Sections missing from the file
// are taken from the embedded default.
func LoadVocabulary(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vocabulary: %w", err)
	}
	custom, err := parseVocabulary(data)
	if err != nil {
		return nil, err
	}

	def := DefaultVocabulary()
	if len(custom.Actions) == 0 {
		custom.Actions = def.Actions
	}
	if len(custom.Connectors) == 0 {
		custom.Connectors = def.Connectors
	}
	if len(custom.Templates) == 0 {
		custom.Templates = def.Templates
	}
	return custom, custom.Validate()
}

func parseVocabulary(data []byte) (*Vocabulary, error) {
	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary: %w", err)
	}
	return &v, nil
}

// Validate checks that every section is usable.
func (v *Vocabulary) Validate() error {
	if len(v.Actions) == 0 {
		return errors.New("vocabulary has no actions")
	}
	if len(v.Connectors) == 0 {
		return errors.New("vocabulary has no connectors")
	}
	if len(v.Templates) == 0 {
		return errors.New("vocabulary has no templates")
	}
	for _, tpl := range v.Templates {
		if !strings.Contains(tpl, "{subject}") {
			return fmt.Errorf("template %q does not use {subject}", tpl)
		}
	}
	return nil
}

// render fills a template.
func render(tpl, subject, action, obj1, obj2, context string) string {
	r := strings.NewReplacer(
		templatePlaceholders[0], subject,
		templatePlaceholders[1], action,
		templatePlaceholders[2], obj1,
		templatePlaceholders[3], obj2,
		templatePlaceholders[4], context,
	)
	return r.Replace(tpl)
}
