package config

// WatchFile represents the structure of the filesentry.yaml configuration file.
type WatchFile struct {
	Settle   string    `yaml:"settle"`
	MaxDelay string    `yaml:"maxDelay"`
	Roots    []RootDTO `yaml:"roots"`
}

// RootDTO represents one watch root in the configuration.
type RootDTO struct {
	Path      string   `yaml:"path"`
	Recursive *bool    `yaml:"recursive"`
	Hidden    bool     `yaml:"hidden"`
	NoIgnore  bool     `yaml:"noIgnore"`
	Ignore    []string `yaml:"ignore"`
}
