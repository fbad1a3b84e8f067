package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"tokensmith/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The image library directory exists but is empty.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.BuildDir = filepath.Join(base, "build")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.ImageDirs = []string{filepath.Join(base, "imglib")}
	cfgVal.Paths.LedgerPath = filepath.Join(base, "build", "ledger.db")

	if err := os.MkdirAll(cfgVal.Paths.ImageDirs[0], 0o755); err != nil {
		t.Fatalf("mkdir image dir: %v", err)
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithDelivery toggles delivery mode on the test config.
func WithDelivery(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Build.Delivery = enabled
	}
}

// WithImages writes one solid PNG per name into the image library.
func WithImages(names ...string) ConfigOption {
	return func(b *configBuilder) {
		for i, name := range names {
			WritePNG(b.t, filepath.Join(b.cfg.Paths.ImageDirs[0], name+".png"), 64, 64, Shade(i))
		}
	}
}

// WithDefaultPortrait writes a PNG and configures it as the fallback portrait.
func WithDefaultPortrait() ConfigOption {
	return func(b *configBuilder) {
		path := filepath.Join(b.baseDir, "dft.png")
		WritePNG(b.t, path, 32, 32, Shade(7))
		b.cfg.Paths.DefaultPortrait = path
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.BuildDir)
}
