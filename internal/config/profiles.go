package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed handler_profiles.yaml
var defaultHandlerProfiles []byte

type HandlerProfile struct {
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

type handlerProfilesFile struct {
	Handlers map[string]HandlerProfile `yaml:"handlers"`
}

// LoadHandlerProfiles reads the embedded defaults and, when path is set,
// overlays the handlers defined in that file.
func LoadHandlerProfiles(path string) (map[string]HandlerProfile, error) {
	profiles, err := parseHandlerProfiles(defaultHandlerProfiles)
	if err != nil {
		return nil, fmt.Errorf("parse embedded handler profiles: %w", err)
	}
	if path == "" {
		return profiles, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read handler profiles %s: %w", path, err)
	}
	overrides, err := parseHandlerProfiles(raw)
	if err != nil {
		return nil, fmt.Errorf("parse handler profiles %s: %w", path, err)
	}
	for name, profile := range overrides {
		profiles[name] = profile
	}
	return profiles, nil
}

func parseHandlerProfiles(raw []byte) (map[string]HandlerProfile, error) {
	var file handlerProfilesFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, err
	}
	out := make(map[string]HandlerProfile, len(file.Handlers))
	for name, profile := range file.Handlers {
		if profile.Temperature < 0 || profile.Temperature > 2 {
			return nil, fmt.Errorf("handler %q: temperature %v out of range [0,2]", name, profile.Temperature)
		}
		if profile.MaxTokens < 0 {
			return nil, fmt.Errorf("handler %q: max_tokens must not be negative", name)
		}
		out[name] = profile
	}
	return out, nil
}
