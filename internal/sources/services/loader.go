package services

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// envPattern matches ${VAR} references expanded at load time
var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Loader handles loading and parsing of services.yaml
type Loader struct {
	filePath string
}

// NewLoader creates a new services file loader
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Load reads and parses the services file
func (l *Loader) Load() (FileConfig, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to read services file: %w", err)
	}

	data = expandEnv(data)

	var config FileConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return FileConfig{}, fmt.Errorf("failed to parse services yaml: %w", err)
	}

	return config, nil
}

// expandEnv replaces ${VAR} with the value of the environment variable (empty if unset)
func expandEnv(data []byte) []byte {
	return envPattern.ReplaceAllFunc(data, func(m []byte) []byte {
		name := envPattern.FindSubmatch(m)[1]
		return []byte(os.Getenv(string(name)))
	})
}
