package internal

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Options is the flat set of synthesis knobs. Zero values mean "use default";
// Normalize fills those in.
type Options struct {
	MaxTokensPerSession int  `yaml:"maxTokensPerSession"`
	MergeSequential     bool `yaml:"mergeSequential"`
	IncludeSpeakerNames bool `yaml:"includeGroupSpeakerNames"`
	ImputeReactions     bool `yaml:"imputeReactions"`
	RedactPII           bool `yaml:"redactPII"`
	RedactTracking      bool `yaml:"redactTrackingNumbers"`

	// KnowledgeMode flattens each session into a single narrative assistant
	// message instead of a system/user/assistant dialogue.
	KnowledgeMode bool `yaml:"skipSystemMessages"`

	// MaxFileBytes bounds each output shard. A shard is always flushed before
	// this limit would be exceeded.
	MaxFileBytes int `yaml:"maxFileBytes"`

	PersonaTag         string `yaml:"personaTag"`
	CustomInstructions string `yaml:"customInstructions"`
}

const (
	defaultMaxTokensPerSession = 2048
	defaultMaxFileBytes        = 8 << 20 // 8 MiB per shard
)

// Normalize applies defaults for unset numeric limits.
func (o Options) Normalize() Options {
	if o.MaxTokensPerSession <= 0 {
		o.MaxTokensPerSession = defaultMaxTokensPerSession
	}
	if o.MaxFileBytes <= 0 {
		o.MaxFileBytes = defaultMaxFileBytes
	}
	return o
}

// SystemPrompt builds the system message injected at the start of every
// dialogue-mode entry.
func (o Options) SystemPrompt() string {
	prompt := "You are the user's personal voice."
	if o.PersonaTag != "" {
		prompt = fmt.Sprintf("You are %s.", o.PersonaTag)
	}
	if o.CustomInstructions != "" {
		prompt += " " + o.CustomInstructions
	}
	return prompt
}

// LoadOptions reads synthesis options from a YAML file. A missing path is not
// an error; it returns defaults.
func LoadOptions(path string) (Options, error) {
	if path == "" {
		return Options{}.Normalize(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Options{}.Normalize(), nil
		}
		return Options{}, fmt.Errorf("read options file: %w", err)
	}
	var o Options
	if err := yaml.Unmarshal(data, &o); err != nil {
		return Options{}, fmt.Errorf("parse options file %s: %w", path, err)
	}
	return o.Normalize(), nil
}
