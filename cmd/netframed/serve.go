package main

import (
	"context"
	"net"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/Zereker/netframe"
	"github.com/Zereker/netframe/internal/config"
	"github.com/Zereker/netframe/internal/logging"
)

// serve runs the daemon until ctx is canceled. ready, if set, is called with
// the bound address before the first Accept.
func serve(ctx context.Context, cfg config.Config, log zerolog.Logger, ready func(net.Addr)) error {
	addr, err := net.ResolveTCPAddr("tcp", cfg.Listen)
	if err != nil {
		return errors.Wrapf(err, "resolve %s", cfg.Listen)
	}

	adapter := logging.NewAdapter(log)

	server, err := netframe.New(addr,
		netframe.ServerLoggerOption(adapter),
		netframe.ServerShutdownTimeoutOption(cfg.ShutdownTimeout),
	)
	if err != nil {
		return err
	}
	defer server.Close()

	r := &responder{
		greeting:     []byte(cfg.Greeting),
		writeTimeout: cfg.Heartbeat,
		log:          log,
	}

	opts := append(r.options(),
		netframe.LoggerOption(adapter),
		netframe.HeartbeatOption(cfg.Heartbeat),
		netframe.BufferSizeOption(cfg.SendBuffer),
		netframe.ReadBufferSizeOption(cfg.ReadBuffer),
		netframe.StreamOption(cfg.StreamOptions()...),
	)
	handler := netframe.NewFrameHandler(opts...)

	if ready != nil {
		ready(server.Addr())
	}

	err = server.Serve(ctx, handler)

	handler.CloseAll()
	handler.Wait()

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
