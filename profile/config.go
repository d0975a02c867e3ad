package profile

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// defaultMemProfileRate samples one allocation per 512 KiB, cheap
// enough to leave on for whole-command profiling runs.
const defaultMemProfileRate = 524288

// Flags names the CLI flags used for profiling configuration. Callers
// needing different flag names can fill this struct and call
// [Flags.NewConfig]; [NewConfig] supplies the defaults.
type Flags struct {
	// Profile output path flag names.
	CPUProfile       string
	HeapProfile      string
	AllocsProfile    string
	GoroutineProfile string
	BlockProfile     string
	MutexProfile     string

	// Sampling rate flag names.
	MemProfileRate       string
	BlockProfileRate     string
	MutexProfileFraction string
}

// NewConfig creates a [Config] embedding these flag names.
func (f Flags) NewConfig() *Config {
	return &Config{
		Flags: f,
	}
}

// Config carries profiling output paths and sampling rates bound to
// CLI flags. A zero-value Config has every profile disabled.
//
// Create instances with [NewConfig], register the flags with
// [Config.RegisterFlags], and wrap command execution with the
// [Profiler] from [Config.NewProfiler].
type Config struct {
	Flags Flags

	// Output paths (empty = disabled).
	CPUProfile       string
	HeapProfile      string
	AllocsProfile    string
	GoroutineProfile string
	BlockProfile     string
	MutexProfile     string

	// Sampling rates.
	MemProfileRate       int
	BlockProfileRate     int
	MutexProfileFraction int
}

// NewConfig returns a [Config] using the standard profile flag names
// with every profile disabled.
func NewConfig() *Config {
	return Flags{
		CPUProfile:           "cpu-profile",
		HeapProfile:          "heap-profile",
		AllocsProfile:        "allocs-profile",
		GoroutineProfile:     "goroutine-profile",
		BlockProfile:         "block-profile",
		MutexProfile:         "mutex-profile",
		MemProfileRate:       "mem-profile-rate",
		BlockProfileRate:     "block-profile-rate",
		MutexProfileFraction: "mutex-profile-fraction",
	}.NewConfig()
}

// RegisterFlags adds the profiling flags to flags.
func (c *Config) RegisterFlags(flags *pflag.FlagSet) {
	paths := []struct {
		dest *string
		name string
		kind string
	}{
		{&c.CPUProfile, c.Flags.CPUProfile, "CPU"},
		{&c.HeapProfile, c.Flags.HeapProfile, "heap"},
		{&c.AllocsProfile, c.Flags.AllocsProfile, "allocs"},
		{&c.GoroutineProfile, c.Flags.GoroutineProfile, "goroutine"},
		{&c.BlockProfile, c.Flags.BlockProfile, "block"},
		{&c.MutexProfile, c.Flags.MutexProfile, "mutex"},
	}

	for _, p := range paths {
		flags.StringVar(p.dest, p.name, "", fmt.Sprintf("write %s profile to file", p.kind))
	}

	flags.IntVar(&c.MemProfileRate, c.Flags.MemProfileRate, defaultMemProfileRate,
		"memory profile rate (bytes per sample)")
	flags.IntVar(&c.BlockProfileRate, c.Flags.BlockProfileRate, 1,
		"block profile rate (nanoseconds)")
	flags.IntVar(&c.MutexProfileFraction, c.Flags.MutexProfileFraction, 1,
		"mutex profile fraction (1/N sampling)")
}

// RegisterCompletions registers shell completions for the profiling
// flags on cmd. Rate flags take bare integers, so file completion is
// suppressed; path flags keep the default file completion.
func (c *Config) RegisterCompletions(cmd *cobra.Command) error {
	rateFlags := []string{
		c.Flags.MemProfileRate,
		c.Flags.BlockProfileRate,
		c.Flags.MutexProfileFraction,
	}

	for _, name := range rateFlags {
		err := cmd.RegisterFlagCompletionFunc(name, cobra.NoFileCompletions)
		if err != nil {
			return fmt.Errorf("registering %s completion: %w", name, err)
		}
	}

	return nil
}

// NewProfiler creates a [Profiler] using this [Config].
func (c *Config) NewProfiler() *Profiler {
	return &Profiler{
		Config: *c,
	}
}
