package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"nightsky/fault"
	"nightsky/host/device"
	"nightsky/internal/cliconfig"
	"nightsky/protocol"
)

const longHelp = `Nightsky host tool.

Edit star-field clips, inspect their compressed form and upload them to a
Nightsky board over a serial line.

Configuration is read from $HOME/.nightsky/config.toml, then NIGHTSKY_*
environment variables, then flags.`

var exampleUsage = strings.TrimSpace(`
  nightsky discover
  nightsky clip new show.nsc --frames 8
  nightsky upload show.nsc --device /dev/ttyACM0
  nightsky watch show.nsc
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}

// app carries resolved configuration to the subcommands.
type app struct {
	cfg     cliconfig.Config
	cfgPath string
	log     zerolog.Logger
	out     io.Writer
}

func main() {
	a := &app{
		cfg: cliconfig.DefaultConfig(),
		log: cliconfig.Logger(),
		out: os.Stdout,
	}

	// The first interrupt cancels the context. Uploads treat that as an
	// abort and still run the end handshake before the port is closed.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	root := newRootCmd(a)
	err := root.ExecuteContext(ctx)
	stop()
	if err != nil {
		logFailure(a.log, err)
		os.Exit(1)
	}
}

// logFailure logs a command error, tagged with its fault kind when it has one.
func logFailure(log zerolog.Logger, err error) {
	ev := log.Error().Err(err)
	if k := fault.KindOf(err); k != fault.KindUnknown {
		ev = ev.Stringer("kind", k)
	}
	ev.Msg("nightsky")
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "nightsky",
		Short:         "Edit, inspect and upload Nightsky star-field animations",
		Long:          longHelp,
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s protocol %s %s/%s", getVersion(), protocol.Version, runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgPath, "config", "", "path to config file (default: $HOME/.nightsky/config.toml)")
	pf.StringVar(&a.cfg.Device, "device", a.cfg.Device, "serial device of the board (empty: discover)")
	pf.IntVar(&a.cfg.Baud, "baud", a.cfg.Baud, "serial baud rate")
	pf.DurationVar(&a.cfg.ReadTimeout, "read-timeout", a.cfg.ReadTimeout, "idle time that ends a reply")
	pf.DurationVar(&a.cfg.ReplyTimeout, "reply-timeout", a.cfg.ReplyTimeout, "maximum wait for a board reply")
	pf.StringVar(&a.cfg.Pong, "pong", a.cfg.Pong, "token a compatible board answers ping with")
	pf.BoolVar(&a.cfg.ParallelProbe, "parallel", a.cfg.ParallelProbe, "probe serial endpoints concurrently")
	pf.IntVar(&a.cfg.MaxRecords, "max-records", a.cfg.MaxRecords, "refuse uploads longer than this many records (0: no limit)")
	pf.DurationVar(&a.cfg.Debounce, "debounce", a.cfg.Debounce, "quiet time before watch re-uploads")
	pf.StringVar(&a.cfg.LogLevel, "log-level", a.cfg.LogLevel, "log level (debug, info, warn, error)")

	if err := pf.MarkHidden("pong"); err != nil {
		a.log.Info().Err(err).Msg("failed to hide pong flag")
	}

	root.AddCommand(
		newDiscoverCmd(a),
		newUploadCmd(a),
		newWatchCmd(a),
		newExportCmd(a),
		newRecordsCmd(a),
		newClipCmd(a),
	)
	return root
}

// loadConfig layers the config file and environment under the flags that
// were set explicitly on the command line.
func (a *app) loadConfig(cmd *cobra.Command) error {
	cfgFile := a.cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(&a.cfg, fc, changed); err != nil {
			return err
		}
	}

	if err := cliconfig.ApplyEnvConfig(&a.cfg, changed); err != nil {
		return err
	}

	if err := a.cfg.Validate(); err != nil {
		return err
	}

	cliconfig.SetLogLevel(a.cfg.LogLevel)
	a.log = cliconfig.Logger()
	a.log.Debug().Interface("config", a.cfg).Msg("configuration")
	return nil
}

func (a *app) proberOptions() []device.Option {
	return []device.Option{
		device.WithSerialConfig(a.cfg.SerialConfig("")),
		device.WithPong(a.cfg.Pong),
		device.WithReplyTimeout(a.cfg.ReplyTimeout),
		device.WithParallel(a.cfg.ParallelProbe),
		device.WithLogger(a.log),
	}
}

// resolveDevice returns the configured device, or the first compatible
// board found by discovery.
func (a *app) resolveDevice(ctx context.Context) (string, error) {
	if a.cfg.Device != "" {
		return a.cfg.Device, nil
	}

	a.log.Info().Msg("no device given, discovering")
	found, err := device.Discover(ctx, a.proberOptions()...)
	if err != nil {
		return "", fmt.Errorf("discover: %w", err)
	}
	if len(found) == 0 {
		return "", fmt.Errorf("no Nightsky board found")
	}
	if len(found) > 1 {
		a.log.Warn().Strs("devices", found).Msg("several boards found, using the first")
	}
	return found[0], nil
}

func newDiscoverCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "List serial endpoints with a compatible board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			found, err := device.Discover(cmd.Context(), a.proberOptions()...)
			if err != nil {
				return err
			}
			if len(found) == 0 {
				a.log.Warn().Msg("no compatible board found")
				return nil
			}
			for _, d := range found {
				fmt.Fprintln(a.out, d)
			}
			return nil
		},
	}
}
