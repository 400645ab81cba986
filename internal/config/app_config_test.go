package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/temirov/digest/internal/utils"
)

func boolPointer(value bool) *bool {
	pointer := value
	return &pointer
}

func int64Pointer(value int64) *int64 {
	pointer := value
	return &pointer
}

type configurationFixture struct {
	homeDirectory    string
	workingDirectory string
}

// newConfigurationFixture isolates HOME and clears every DIGEST_ variable the loader reads.
func newConfigurationFixture(t *testing.T) configurationFixture {
	t.Helper()
	fixture := configurationFixture{homeDirectory: t.TempDir(), workingDirectory: t.TempDir()}
	t.Setenv("HOME", fixture.homeDirectory)
	t.Setenv("USERPROFILE", fixture.homeDirectory)
	for _, key := range []string{KeyInclude, KeyExclude, KeyFind, KeyRequire, KeyMaxSize, KeySkipArtifacts, KeyUseGitignore, KeySort, KeyTokens, KeyModel, KeyClipboard, KeyOutput} {
		name := environmentVariableName(key)
		previous, present := os.LookupEnv(name)
		if present {
			t.Cleanup(func() { _ = os.Setenv(name, previous) })
		}
		_ = os.Unsetenv(name)
	}
	return fixture
}

func environmentVariableName(key string) string {
	return utils.EnvironmentPrefix + "_" + strings.ToUpper(key)
}

func (fixture configurationFixture) writeGlobal(t *testing.T, content string) {
	t.Helper()
	directory := filepath.Join(fixture.homeDirectory, utils.GlobalConfigDirectoryName)
	if err := os.MkdirAll(directory, 0o755); err != nil {
		t.Fatalf("create config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(directory, utils.GlobalConfigFileName), []byte(content), 0o600); err != nil {
		t.Fatalf("write global config: %v", err)
	}
}

func (fixture configurationFixture) writeWorking(t *testing.T, name string, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(fixture.workingDirectory, name), []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoadApplicationConfigurationMergesSources(t *testing.T) {
	fixture := newConfigurationFixture(t)
	fixture.writeGlobal(t, "exclude: [\"*.log\"]\nmax_size: 100\nsort: true\nmodel: gpt-4\nclipboard: true\n")
	fixture.writeWorking(t, utils.ConfigFileName, "include: [src, src]\nmax_size: 200\nclipboard: false\noutput: digest.md\n")

	loaded, err := LoadApplicationConfiguration(LoadOptions{WorkingDirectory: fixture.workingDirectory})
	if err != nil {
		t.Fatalf("LoadApplicationConfiguration error: %v", err)
	}
	expected := ApplicationConfiguration{
		Include:   []string{"src"},
		Exclude:   []string{"*.log"},
		MaxSize:   int64Pointer(200),
		Sort:      boolPointer(true),
		Model:     "gpt-4",
		Clipboard: boolPointer(false),
		Output:    "digest.md",
	}
	if !reflect.DeepEqual(loaded, expected) {
		t.Fatalf("expected %+v, got %+v", expected, loaded)
	}
}

func TestLoadApplicationConfigurationExplicitPath(t *testing.T) {
	fixture := newConfigurationFixture(t)
	fixture.writeWorking(t, utils.ConfigFileName, "model: ignored\n")
	fixture.writeWorking(t, "custom.yaml", "model: chosen\nskip_artifacts: true\n")

	loaded, err := LoadApplicationConfiguration(LoadOptions{WorkingDirectory: fixture.workingDirectory, ExplicitFilePath: "custom.yaml"})
	if err != nil {
		t.Fatalf("LoadApplicationConfiguration error: %v", err)
	}
	if loaded.Model != "chosen" {
		t.Fatalf("expected model chosen, got %q", loaded.Model)
	}
	if loaded.SkipArtifacts == nil || !*loaded.SkipArtifacts {
		t.Fatalf("expected skip_artifacts true")
	}
}

func TestLoadApplicationConfigurationEnvironmentOverrides(t *testing.T) {
	fixture := newConfigurationFixture(t)
	fixture.writeWorking(t, utils.ConfigFileName, "model: from-file\nmax_size: 100\nuse_gitignore: true\n")
	fixture.writeWorking(t, utils.DotenvFileName, "DIGEST_MODEL=from-dotenv\nDIGEST_FIND=foo, bar\nDIGEST_USE_GITIGNORE=false\nOTHER_VALUE=unused\n")
	t.Setenv(environmentVariableName(KeyMaxSize), "300")
	t.Setenv(environmentVariableName(KeyUseGitignore), "true")

	loaded, err := LoadApplicationConfiguration(LoadOptions{WorkingDirectory: fixture.workingDirectory})
	if err != nil {
		t.Fatalf("LoadApplicationConfiguration error: %v", err)
	}
	if loaded.Model != "from-dotenv" {
		t.Fatalf("expected .env to override the file, got %q", loaded.Model)
	}
	if !reflect.DeepEqual(loaded.Find, []string{"foo", "bar"}) {
		t.Fatalf("expected find terms from .env, got %v", loaded.Find)
	}
	if loaded.MaxSize == nil || *loaded.MaxSize != 300 {
		t.Fatalf("expected max_size 300 from the environment, got %v", loaded.MaxSize)
	}
	if loaded.UseGitignore == nil || !*loaded.UseGitignore {
		t.Fatalf("expected the process environment to win over .env")
	}
	if _, present := os.LookupEnv(environmentVariableName(KeyModel)); present {
		t.Fatalf("expected .env values to stay out of the process environment")
	}
}

func TestLoadApplicationConfigurationRejectsDirectory(t *testing.T) {
	fixture := newConfigurationFixture(t)
	if err := os.MkdirAll(filepath.Join(fixture.workingDirectory, utils.ConfigFileName), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if _, err := LoadApplicationConfiguration(LoadOptions{WorkingDirectory: fixture.workingDirectory}); err == nil {
		t.Fatalf("expected an error for a directory configuration path")
	}
}

func TestMergeKeepsBaseWhenOverrideEmpty(t *testing.T) {
	base := ApplicationConfiguration{Include: []string{"a"}, Tokens: boolPointer(true), Model: "m"}
	merged := base.Merge(ApplicationConfiguration{})
	if !reflect.DeepEqual(merged, base) {
		t.Fatalf("expected %+v, got %+v", base, merged)
	}

	override := ApplicationConfiguration{Tokens: boolPointer(false)}
	overridden := base.Merge(override)
	if overridden.Tokens == override.Tokens || *overridden.Tokens {
		t.Fatalf("expected a cloned false tokens override")
	}
}
