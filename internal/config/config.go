package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration
type Config struct {
	General       GeneralConfig       `toml:"general"`
	Paths         PathsConfig         `toml:"paths"`
	Caretaker     CaretakerConfig     `toml:"caretaker"`
	Notifications NotificationsConfig `toml:"notifications"`
	Web           WebConfig           `toml:"web"`
}

// GeneralConfig holds general settings
type GeneralConfig struct {
	SwarmRoot   string `toml:"swarm_root" envconfig:"SWARM_ROOT"`
	SpawnScript string `toml:"spawn_script" envconfig:"SPAWN_SCRIPT"`
}

// PathsConfig holds the locations of the shared swarm state files.
type PathsConfig struct {
	PolicyFile      string `toml:"policy_file" envconfig:"POLICY_FILE"`
	PauseFile       string `toml:"pause_file" envconfig:"PAUSE_FILE"`
	LeaderboardFile string `toml:"leaderboard_file" envconfig:"LEADERBOARD_FILE"`
	FitnessFile     string `toml:"fitness_file" envconfig:"FITNESS_FILE"`
	GenomeDir       string `toml:"genome_dir" envconfig:"GENOME_DIR"`
	DecisionLog     string `toml:"decision_log" envconfig:"DECISION_LOG"`
	DatabasePath    string `toml:"database_path" envconfig:"DATABASE_PATH"`
}

// CaretakerConfig holds fleet health monitoring settings
type CaretakerConfig struct {
	Schedule         string   `toml:"schedule" envconfig:"CARETAKER_SCHEDULE"`
	LongRunningHours int      `toml:"long_running_hours" envconfig:"LONG_RUNNING_HOURS"`
	AgentPrefixes    []string `toml:"agent_prefixes"`
	ServiceNames     []string `toml:"service_names"`
}

// NotificationsConfig holds notification settings
type NotificationsConfig struct {
	SlackWebhook string `toml:"slack_webhook" envconfig:"SLACK_WEBHOOK"`
}

// WebConfig holds web UI settings
type WebConfig struct {
	Port int    `toml:"port" envconfig:"WEB_PORT"`
	Host string `toml:"host" envconfig:"WEB_HOST"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	home, _ := os.UserHomeDir()
	root := filepath.Join(home, ".kraliki")
	return &Config{
		General: GeneralConfig{
			SwarmRoot:   root,
			SpawnScript: filepath.Join(root, "bin", "spawn-agent.sh"),
		},
		Paths: PathsConfig{
			PolicyFile:      filepath.Join(root, "cli-control.json"),
			PauseFile:       filepath.Join(root, "swarm-pause.json"),
			LeaderboardFile: filepath.Join(root, "leaderboard.json"),
			FitnessFile:     filepath.Join(root, "fitness-metrics.json"),
			GenomeDir:       filepath.Join(root, "genomes"),
			DecisionLog:     filepath.Join(root, "decisions.jsonl"),
			DatabasePath:    filepath.Join(root, "swarm-ops.db"),
		},
		Caretaker: CaretakerConfig{
			Schedule:         "*/5 * * * *",
			LongRunningHours: 9,
			AgentPrefixes:    []string{"CC-", "OC-", "CX-", "GE-", "GR-", "darwin-"},
			ServiceNames:     []string{"kraliki-dashboard", "kraliki-evolution"},
		},
		Web: WebConfig{
			Port: 8420,
			Host: "127.0.0.1",
		},
	}
}

// Load reads configuration from a TOML file, falling back to defaults.
// Environment variables prefixed KRALIKI_ override both.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if err := envconfig.Process("kraliki", cfg); err != nil {
		return nil, err
	}

	cfg.General.SwarmRoot = ExpandPath(cfg.General.SwarmRoot)
	cfg.General.SpawnScript = ExpandPath(cfg.General.SpawnScript)
	cfg.Paths.PolicyFile = ExpandPath(cfg.Paths.PolicyFile)
	cfg.Paths.PauseFile = ExpandPath(cfg.Paths.PauseFile)
	cfg.Paths.LeaderboardFile = ExpandPath(cfg.Paths.LeaderboardFile)
	cfg.Paths.FitnessFile = ExpandPath(cfg.Paths.FitnessFile)
	cfg.Paths.GenomeDir = ExpandPath(cfg.Paths.GenomeDir)
	cfg.Paths.DecisionLog = ExpandPath(cfg.Paths.DecisionLog)
	cfg.Paths.DatabasePath = ExpandPath(cfg.Paths.DatabasePath)

	return cfg, nil
}

// Save writes the configuration to a TOML file
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ExpandPath expands ~ to the user's home directory
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// DefaultConfigPath returns the default config file location
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "swarm-ops", "config.toml")
}
