package configs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	return dir
}

func TestInitConfigFileEnvAndDefaults(t *testing.T) {
	dir := writeConfig(t, `
server:
  reload_config: false
link:
  secret: "0123456789abcdef-yaml"
plans:
  default_sizes: [200, 400]
`)
	t.Setenv("IMAGEVAULT_THUMBNAIL_QUALITY", "70")

	if err := InitConfig(dir); err != nil {
		t.Fatal(err)
	}

	c := GetConfig()
	if c.Link.Secret != "0123456789abcdef-yaml" {
		t.Errorf("secret = %q", c.Link.Secret)
	}

	if len(c.Plans.DefaultSizes) != 2 || c.Plans.DefaultName != DefaultPlanName {
		t.Errorf("plans = %+v", c.Plans)
	}

	if c.Thumbnail.Quality != 70 {
		t.Errorf("env override quality = %d", c.Thumbnail.Quality)
	}

	if c.DB.ConnMaxLifetime != time.Hour || !c.DB.AutoMigrate {
		t.Errorf("db defaults = %+v", c.DB)
	}

	if !strings.HasSuffix(GetViper().ConfigFileUsed(), "config.yaml") {
		t.Errorf("config file = %q", GetViper().ConfigFileUsed())
	}

	if err := Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestValidateRejectsShortSecret(t *testing.T) {
	dir := writeConfig(t, "server:\n  reload_config: false\nlink:\n  secret: short\n")

	if err := InitConfig(dir); err != nil {
		t.Fatal(err)
	}

	if err := Validate(); err == nil {
		t.Fatal("expected error for a secret shorter than 16 bytes")
	}
}

func TestInitConfigWithoutFile(t *testing.T) {
	t.Setenv("IMAGEVAULT_LINK_SECRET", "from-environment-0001")

	if err := InitConfig(t.TempDir()); err != nil {
		t.Fatal(err)
	}

	if got := GetConfig().Link.Secret; got != "from-environment-0001" {
		t.Errorf("secret = %q", got)
	}
}
