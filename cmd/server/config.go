package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds every flag/env-configurable knob of the server, bound
// the way Seednode-partybox's config.go binds cobra/pflag to viper.
type Config struct {
	bind         string
	port         int
	roomCount    int
	verbose      bool
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func (c *Config) validate() error {
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.roomCount < 1 {
		return fmt.Errorf("invalid room count (must be >= 1): %d", c.roomCount)
	}
	return nil
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("THREETHIRTEEN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "three-thirteen",
		Short:         "WebSocket server for the Three Thirteen card game.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return Serve(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: THREETHIRTEEN_BIND)")
	fs.IntVarP(&cfg.port, "port", "p", 8000, "port to listen on (env: THREETHIRTEEN_PORT)")
	fs.IntVar(&cfg.roomCount, "room-count", 10, "number of rooms to host (env: THREETHIRTEEN_ROOM_COUNT)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: THREETHIRTEEN_VERBOSE)")
	fs.DurationVar(&cfg.readTimeout, "read-timeout", 10*time.Second, "HTTP server read timeout (env: THREETHIRTEEN_READ_TIMEOUT)")
	fs.DurationVar(&cfg.writeTimeout, "write-timeout", 10*time.Second, "HTTP server write timeout (env: THREETHIRTEEN_WRITE_TIMEOUT)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SilenceUsage = true

	return cmd
}
