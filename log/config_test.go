package log_test

import (
	"bytes"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonmap/canonmap/log"
)

func TestConfigRegisterFlagsDefaults(t *testing.T) {
	t.Parallel()

	cfg := log.NewConfig()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)

	cfg.RegisterFlags(flags)

	require.NoError(t, flags.Parse(nil))
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "text", cfg.Format)
}

func TestConfigRegisterFlagsParsing(t *testing.T) {
	t.Parallel()

	cfg := log.NewConfig()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)

	cfg.RegisterFlags(flags)

	require.NoError(t, flags.Parse([]string{"--log-level=debug", "--log-format=json"}))
	assert.Equal(t, "debug", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
}

func TestConfigNewHandler(t *testing.T) {
	t.Parallel()

	cfg := log.NewConfig()
	cfg.Level = "warn"
	cfg.Format = "json"

	handler, err := cfg.NewHandler(&bytes.Buffer{})
	require.NoError(t, err)
	assert.NotNil(t, handler)

	cfg.Level = "verbose"

	_, err = cfg.NewHandler(&bytes.Buffer{})
	require.ErrorIs(t, err, log.ErrUnknownLogLevel)
}
