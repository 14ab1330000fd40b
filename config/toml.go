package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"text/template"
)

// app.toml.tpl mirrors the mapstructure tags of AppConfig.
//
//go:embed app.toml.tpl
var appTomlTemplate string

var appToml = template.Must(template.New("app.toml").Parse(appTomlTemplate))

// WriteAppConfigFile renders the [app] section of cfg into path.
func WriteAppConfigFile(path string, cfg *Config) error {
	var buf bytes.Buffer
	if err := appToml.Execute(&buf, cfg); err != nil {
		return fmt.Errorf("render app config: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
