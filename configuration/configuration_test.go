package configuration

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleConfig = `
version: 0.1
log:
  level: debug
  formatter: json
bytestream:
  chunksize: 4096
  forgetwindow: 1048576
migration:
  oldbaseurl: https://old.example.com
  newbaseurl: https://new.example.com
redis:
  addr: localhost:6379
  db: 2
`

func TestParseValidConfiguration(t *testing.T) {
	cfg, err := Parse(bytes.NewBufferString(sampleConfig))
	require.NoError(t, err)

	require.Equal(t, Loglevel("debug"), cfg.Log.Level)
	require.Equal(t, "json", cfg.Log.Formatter)
	require.Equal(t, 4096, cfg.ByteStream.ChunkSize)
	require.Equal(t, 1048576, cfg.ByteStream.ForgetWindow)
	require.Equal(t, "https://old.example.com", cfg.Migration.OldBaseURL)
	require.Equal(t, "https://new.example.com", cfg.Migration.NewBaseURL)
	require.Equal(t, "localhost:6379", cfg.Redis.Addr)
	require.Equal(t, 2, cfg.Redis.DB)
}

func TestParseDefaultsApplied(t *testing.T) {
	cfg, err := Parse(bytes.NewBufferString("version: 0.1\n"))
	require.NoError(t, err)

	require.Equal(t, Loglevel("info"), cfg.Log.Level)
	require.Equal(t, 64*1024, cfg.ByteStream.ChunkSize)
}

func TestParseRejectsUnknownVersion(t *testing.T) {
	_, err := Parse(bytes.NewBufferString("version: 9.9\n"))
	require.Error(t, err)
}

func TestParseRejectsInvalidLoglevel(t *testing.T) {
	_, err := Parse(bytes.NewBufferString("version: 0.1\nlog:\n  level: screaming\n"))
	require.Error(t, err)
}
