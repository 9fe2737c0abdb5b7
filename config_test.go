package depot

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		content  string
		wantCap  int
		wantSize int
		wantLvl  string
		wantErr  bool
	}{
		{
			name: "toml",
			file: "depot.toml",
			content: `chunk_capacity = 64
parallel_batch_size = 2

[logging]
level = "debug"
format = "json"
`,
			wantCap: 64, wantSize: 2, wantLvl: "debug",
		},
		{
			name: "yaml",
			file: "depot.yaml",
			content: `chunk_capacity: 32
logging:
  level: warn
`,
			wantCap: 32, wantSize: DefaultParallelBatchSize, wantLvl: "warn",
		},
		{
			name:    "non-positive values fall back",
			file:    "depot.yml",
			content: "chunk_capacity: -1\nparallel_batch_size: 0\n",
			wantCap: DefaultChunkCapacity, wantSize: DefaultParallelBatchSize, wantLvl: "info",
		},
		{name: "unknown extension", file: "depot.json", content: "{}", wantErr: true},
		{name: "malformed toml", file: "bad.toml", content: "chunk_capacity = ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}

			cfg, err := LoadConfig(path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("LoadConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if cfg.ChunkCapacity != tt.wantCap {
				t.Errorf("ChunkCapacity = %d, want %d", cfg.ChunkCapacity, tt.wantCap)
			}
			if cfg.ParallelBatchSize != tt.wantSize {
				t.Errorf("ParallelBatchSize = %d, want %d", cfg.ParallelBatchSize, tt.wantSize)
			}
			if cfg.Logging.Level != tt.wantLvl {
				t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, tt.wantLvl)
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Errorf("LoadConfig() on a missing file returned no error")
	}
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"console", "json"} {
		t.Run(format, func(t *testing.T) {
			log, err := NewLogger(LoggingConfig{Level: "debug", Format: format})
			if err != nil {
				t.Fatalf("NewLogger() error = %v", err)
			}
			if !log.Core().Enabled(-1) {
				t.Errorf("debug level not enabled")
			}
		})
	}
}

func TestPackageDefaults(t *testing.T) {
	Config.SetChunkCapacity(16)
	Config.SetParallelBatchSize(3)
	defer func() {
		Config.SetChunkCapacity(DefaultChunkCapacity)
		Config.SetParallelBatchSize(DefaultParallelBatchSize)
	}()

	w := Factory.NewWorld()
	if w.Config().ChunkCapacity != 16 || w.Config().ParallelBatchSize != 3 {
		t.Errorf("world config = %+v", w.Config())
	}
}
