// Command netframed serves the netframe protocol over TCP and probes servers
// that speak it.
package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/Zereker/netframe/frame"
	"github.com/Zereker/netframe/internal/config"
	"github.com/Zereker/netframe/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "netframed:", err)
		os.Exit(1)
	}
}

// cli holds state shared by the subcommands.
type cli struct {
	cfg     config.Config
	cfgPath string
}

func newRootCmd() *cobra.Command {
	c := &cli{cfg: config.Default()}

	root := &cobra.Command{
		Use:           "netframed",
		Short:         "Serve and probe the netframe TCP framing protocol",
		Version:       fmt.Sprintf("%s %s/%s", logging.Version(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.cfgPath, "config", "", "path to config file (default: $HOME/.netframe/config.toml)")
	pf.StringVar(&c.cfg.Log.Level, "log-level", c.cfg.Log.Level, "log level: debug, info, warn, error")
	pf.StringVar(&c.cfg.Log.Format, "log-format", c.cfg.Log.Format, "log format: console or json")
	pf.StringVar(&c.cfg.Log.Output, "log-output", c.cfg.Log.Output, "log sink: stderr, stdout or a file path")

	root.AddCommand(c.newServeCmd(), c.newPingCmd())
	return root
}

// load layers file, environment and flags onto c.cfg and validates the result.
func (c *cli) load(cmd *cobra.Command) error {
	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	cfgFile := c.cfgPath
	if cfgFile == "" {
		cfgFile = config.DefaultPath()
	}
	if cfgFile != "" && config.FileExists(cfgFile) {
		fc, err := config.LoadFile(cfgFile)
		if err != nil {
			return errors.Wrap(err, "load config")
		}
		if err := config.ApplyFile(&c.cfg, fc, changed); err != nil {
			return err
		}
	}

	if err := config.ApplyEnv(&c.cfg, changed); err != nil {
		return err
	}

	return c.cfg.Validate()
}

func (c *cli) logger() (zerolog.Logger, func(), error) {
	log, closer, err := logging.New(c.cfg.Log)
	if err != nil {
		return zerolog.Nop(), func() {}, err
	}
	return log, func() { _ = closer.Close() }, nil
}

func (c *cli) newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Accept connections and answer netframe frames",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.load(cmd); err != nil {
				return err
			}
			log, done, err := c.logger()
			if err != nil {
				return err
			}
			defer done()

			logging.LogBuildInfo(log, "netframed")
			log.Info().Interface("config", c.cfg).Msg("configuration")

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			err = serve(ctx, c.cfg, log, func(addr net.Addr) {
				log.Info().Str("addr", addr.String()).Msg("listening")
			})
			if err != nil {
				log.Error().Err(err).Msg("serve")
				return err
			}
			log.Info().Msg("stopped")
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&c.cfg.Listen, "listen", c.cfg.Listen, "TCP address to listen on")
	f.DurationVar(&c.cfg.ShutdownTimeout, "shutdown-timeout", c.cfg.ShutdownTimeout, "how long the listener stays open after a shutdown signal")
	f.DurationVar(&c.cfg.Heartbeat, "heartbeat", c.cfg.Heartbeat, "idle interval; connections silent for twice this long are dropped")
	f.IntVar(&c.cfg.SendBuffer, "send-buffer", c.cfg.SendBuffer, "outbound frames queued per connection")
	f.IntVar(&c.cfg.ReadBuffer, "read-buffer", c.cfg.ReadBuffer, "bytes read from the socket per call")
	f.IntVar(&c.cfg.MaxFrames, "max-frames", c.cfg.MaxFrames, "decoded frames queued per connection (0 = unbounded)")
	f.IntVar(&c.cfg.MaxPendingBytes, "max-pending-bytes", c.cfg.MaxPendingBytes, "undecoded bytes buffered per connection (0 = unbounded)")
	f.StringVar(&c.cfg.Greeting, "greeting", c.cfg.Greeting, "payload of the Hello frame sent on connect (empty disables it)")

	return cmd
}

func (c *cli) newPingCmd() *cobra.Command {
	var (
		tagName string
		payload string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "ping [addr]",
		Short: "Send one frame to a server and print what comes back",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.load(cmd); err != nil {
				return err
			}

			tag, ok := frame.ParseTag(tagName)
			if !ok {
				return errors.Errorf("unknown tag %q", tagName)
			}

			addr := c.cfg.Listen
			if len(args) == 1 {
				addr = args[0]
			}

			req := frame.New(tag, []byte(payload))
			start := time.Now()
			frames, err := ping(cmd.Context(), addr, req, timeout)

			out := cmd.OutOrStdout()
			for _, f := range frames {
				fmt.Fprintf(out, "%s %s\n", f.Kind(), strconv.Quote(string(f.Payload)))
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "rtt %s\n", time.Since(start).Round(time.Microsecond))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&tagName, "tag", frame.Ping.String(), "tag of the frame to send")
	f.StringVar(&payload, "payload", "ping", "payload of the frame to send")
	f.DurationVar(&timeout, "timeout", 5*time.Second, "give up after this long")

	return cmd
}
