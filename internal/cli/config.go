package cli

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// projectConfigFiles is the search order for project config files
var projectConfigFiles = []string{"sourcify.toml"}

// ProjectConfig is the project-level TOML configuration for the validate
// command, so repeated runs don't need the same flags every time.
type ProjectConfig struct {
	Paths      []string `toml:"paths,omitempty"`
	Output     string   `toml:"output,omitempty"`
	AllSources bool     `toml:"all_sources,omitempty"`
	ShowUnused bool     `toml:"show_unused,omitempty"`
}

// loadProjectConfig loads the project config from --config or the search
// order. A missing file is not an error; a broken one is.
func loadProjectConfig() (*ProjectConfig, error) {
	candidates := projectConfigFiles
	if cfgFile != "" {
		candidates = []string{cfgFile}
	}
	for _, name := range candidates {
		if _, err := os.Stat(name); err != nil {
			if cfgFile != "" {
				return nil, fmt.Errorf("config file not found: %s", cfgFile)
			}
			continue
		}
		var cfg ProjectConfig
		if _, err := toml.DecodeFile(name, &cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		return &cfg, nil
	}
	return &ProjectConfig{}, nil
}
