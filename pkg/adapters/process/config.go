package process

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/concierge/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Config declares a command tool.
type Config struct {
	Name        string            `yaml:"name" json:"name"`
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args" json:"args"`
	Environment map[string]string `yaml:"env" json:"env"`
	Description string            `yaml:"description" json:"description"`
}

// ConfigFile is the layout of a tools.yaml file.
type ConfigFile struct {
	Tools []Config `yaml:"tools" json:"tools"`
}

// Build creates the tool of the config; relative commands run in dir.
func (c Config) Build(dir string) (*Tool, error) {
	if c.Name == "" || c.Command == "" {
		return nil, fmt.Errorf("process tool needs a name and a command, got %q", c.Name)
	}
	return New(c.Name, c.Command, c.Args, WithDir(dir), WithEnv(c.Environment)), nil
}

// LoadTools reads a YAML or JSON tools file. A missing file yields no tools.
func LoadTools(path string) ([]domain.Tool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read tools config: %w", err)
	}

	var cfg ConfigFile
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &cfg)
	} else {
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}

	dir := filepath.Dir(path)
	var tools []domain.Tool
	for _, c := range cfg.Tools {
		tool, err := c.Build(dir)
		if err != nil {
			return nil, err
		}
		tools = append(tools, tool)
	}
	return tools, nil
}
