package lazy

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Config
		wantErr bool
	}{
		{name: "empty", input: "", want: DefaultConfig()},
		{
			name:  "full",
			input: "max_free_list: 8\nlog_level: debug\ndisable_sharing: true\n",
			want:  Config{MaxFreeList: 8, LogLevel: "debug", DisableSharing: true},
		},
		{name: "negative limit", input: "max_free_list: -1\n", wantErr: true},
		{name: "unknown level", input: "log_level: loud\n", wantErr: true},
		{name: "unknown field", input: "pool_size: 3\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadConfig(strings.NewReader(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lazy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: warn\n"), 0o644))

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, cfg.Level())

	_, err = LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestConfig_MaxFreeList(t *testing.T) {
	s := newScene(t, WithConfig(Config{MaxFreeList: 1}))
	a, b := s.circle.MustNew(), s.circle.MustNew()
	a.Release()
	b.Release()

	stats := s.reg.Pools().ClassStats(s.circle)
	assert.Equal(t, 1, stats.Free)
	assert.Equal(t, uint64(1), stats.Dropped)
	assert.Equal(t, uint64(2), stats.Restocks)
}

func TestConfig_DisableSharing(t *testing.T) {
	reg := NewRegistry(WithConfig(Config{DisableSharing: true}))
	word := reg.NewClass("Word")
	text := DeclareSharedVariable(word, "text", func() string { return "" },
		func(s string) string { return strings.ToLower(s) })
	require.NoError(t, word.Register())

	a, b := word.MustNew(), word.MustNew()
	require.NoError(t, text.Set(a, "Go"))
	require.NoError(t, text.Set(b, "go"))
	assert.NotSame(t, a.vars[0].value, b.vars[0].value)
	assert.Equal(t, "Go", text.MustGet(a))
}
