// Package config loads the Snowflake connection settings from secrets.toml.
//
// Separated from cmd so that other packages (snowflake, analyst, tui) can
// depend on config without importing Cobra. The file mirrors the layout
// Streamlit users know:
//
//	[snowflake]
//	user      = "ANALYST"
//	password  = "..."
//	account   = "myorg-myaccount"
//	warehouse = "COMPUTE_WH"
//	database  = "REVENUE"
//	schema    = "PUBLIC"
//	role      = "ANALYST_ROLE"
//	host      = "myorg-myaccount.snowflakecomputing.com"
//	stage     = "SEMANTIC_MODELS"
//	file      = "revenue.yaml"
//
// Every key above is required; Load fails naming all missing keys at once
// so the user fixes the file in one pass.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config holds all Snowflake settings. Immutable after Load.
type Config struct {
	User      string `toml:"user"`
	Password  string `toml:"password"`
	Account   string `toml:"account"`
	Warehouse string `toml:"warehouse"`
	Database  string `toml:"database"`
	Schema    string `toml:"schema"`
	Role      string `toml:"role"`
	Host      string `toml:"host"`
	Stage     string `toml:"stage"`
	File      string `toml:"file"`

	// Optional: PEM private key for key-pair (JWT) auth on the SQL
	// connection. Password auth is still required for the REST session.
	PrivateKeyPath string `toml:"private_key_path"`
}

// secretsFile is the top-level structure of secrets.toml.
type secretsFile struct {
	Snowflake Config `toml:"snowflake"`
}

// Load reads secrets.toml. When path is empty it tries ./secrets.toml,
// then ~/.snowchat/secrets.toml.
func Load(path string) (Config, error) {
	path, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	var file secretsFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg := file.Snowflake
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func resolvePath(path string) (string, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("secrets file: %w", err)
		}
		return path, nil
	}

	candidates := []string{"secrets.toml"}
	if homeDir, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(homeDir, ".snowchat", "secrets.toml"))
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}
	return "", fmt.Errorf("no secrets.toml found (tried %s)", strings.Join(candidates, ", "))
}

// validate reports every missing required key in one error.
func (c Config) validate() error {
	required := []struct {
		key   string
		value string
	}{
		{"user", c.User},
		{"password", c.Password},
		{"account", c.Account},
		{"warehouse", c.Warehouse},
		{"database", c.Database},
		{"schema", c.Schema},
		{"role", c.Role},
		{"host", c.Host},
		{"stage", c.Stage},
		{"file", c.File},
	}

	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required snowflake key(s): %s", strings.Join(missing, ", "))
	}
	return nil
}

// SemanticModelFile builds the stage reference the analyst API expects,
// e.g. "@REVENUE.PUBLIC.SEMANTIC_MODELS/revenue.yaml".
func (c Config) SemanticModelFile() string {
	return fmt.Sprintf("@%s.%s.%s/%s", c.Database, c.Schema, c.Stage, c.File)
}

// BaseURL is the https root for all REST calls against the account host.
func (c Config) BaseURL() string {
	return "https://" + strings.TrimSuffix(c.Host, "/")
}
