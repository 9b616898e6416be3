package paths

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigDir_Linux(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("linux-only test")
	}

	t.Run("uses XDG_CONFIG_HOME when set", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
		got, err := DefaultConfigDir()
		require.NoError(t, err)
		assert.Equal(t, "/tmp/xdg-config/dentops", got)
	})

	t.Run("falls back to ~/.config when XDG unset", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		home, err := os.UserHomeDir()
		require.NoError(t, err)

		got, err := DefaultConfigDir()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, ".config", "dentops"), got)
	})
}

func TestResolveConfigDir(t *testing.T) {
	t.Run("flag wins over env", func(t *testing.T) {
		t.Setenv(EnvConfigDir, "/tmp/from-env")
		got, err := ResolveConfigDir("/tmp/from-flag")
		require.NoError(t, err)
		assert.Equal(t, "/tmp/from-flag", got)
	})

	t.Run("env wins when flag empty", func(t *testing.T) {
		t.Setenv(EnvConfigDir, "/tmp/from-env")
		got, err := ResolveConfigDir("")
		require.NoError(t, err)
		assert.Equal(t, "/tmp/from-env", got)
	})

	t.Run("cwd .dentops wins over platform default when present", func(t *testing.T) {
		t.Setenv(EnvConfigDir, "")
		tmp := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(tmp, DefaultConfigDirName), 0o755))
		oldWd, err := os.Getwd()
		require.NoError(t, err)
		require.NoError(t, os.Chdir(tmp))
		t.Cleanup(func() { _ = os.Chdir(oldWd) })

		got, err := ResolveConfigDir("")
		require.NoError(t, err)
		assert.Equal(t, DefaultConfigDirName, filepath.Base(got))
	})
}

func TestResolveDatabase(t *testing.T) {
	tests := []struct {
		name        string
		flag        string
		configValue string
		envVal      string
		want        string
	}{
		{
			name:        "flag wins over everything",
			flag:        "override.db",
			configValue: "config.db",
			envVal:      "env.db",
			want:        "override.db",
		},
		{
			name:        "config value wins over env",
			configValue: "config.db",
			envVal:      "env.db",
			want:        "config.db",
		},
		{
			name:   "env wins over default",
			envVal: "env.db",
			want:   "env.db",
		},
		{
			name: "default when nothing set",
			want: DefaultDatabasePath,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvDatabase, tt.envVal)
			got := ResolveDatabase(tt.flag, tt.configValue)
			assert.Equal(t, tt.want, got)
		})
	}
}
