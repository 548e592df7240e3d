package app

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
Title = "dump test"

[DB]
GormEngine = "sqlite"
Name = "bsreload.db"

[Webserver]
Port = 8181
URL = "http://localhost:8181"
`

func writeConfig(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.toml"), []byte(testConfig), 0o600))

	return dir
}

// resetFlags puts every flag back to its default so one test can not leak into the next.
func resetFlags(fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)

	t.Cleanup(func() {
		resetFlags(rootCmd.PersistentFlags())
		resetFlags(configDumpCmd.Flags())

		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()

	return out.String(), err
}

func TestConfigDumpTOML(t *testing.T) {
	out, err := run(t, "config", "dump", "--config", writeConfig(t))
	require.NoError(t, err)

	assert.Contains(t, out, `Title = "dump test"`)
	assert.Contains(t, out, "Port = 8181")
}

func TestConfigDumpJSON(t *testing.T) {
	out, err := run(t, "config", "dump", "--json", "--config", writeConfig(t), "--dev")
	require.NoError(t, err)

	var got struct {
		Title     string
		DevMode   bool
		Webserver struct{ Port int }
		NATS      struct{ Subject string }
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))

	assert.Equal(t, "dump test", got.Title)
	assert.True(t, got.DevMode)
	assert.Equal(t, 8181, got.Webserver.Port)
	assert.Equal(t, "cms.post.saved", got.NATS.Subject)
}

func TestFlagsDoNotLeakBetweenRuns(t *testing.T) {
	dir := writeConfig(t)

	t.Run("with dev and json", func(t *testing.T) {
		out, err := run(t, "config", "dump", "--json", "--dev", "--config", dir)
		require.NoError(t, err)
		assert.Contains(t, out, `"DevMode": true`)
	})

	t.Run("defaults again", func(t *testing.T) {
		// no --config: back to ./etc/, which does not exist below app/
		_, err := run(t, "config", "dump")
		require.Error(t, err)

		out, err := run(t, "config", "dump", "--config", dir)
		require.NoError(t, err)
		assert.Contains(t, out, "DevMode = false")
		assert.NotContains(t, out, `"DevMode"`)
	})
}

func TestConfigDumpMissingFile(t *testing.T) {
	_, err := run(t, "config", "dump", "--config", t.TempDir())
	require.Error(t, err)
}
