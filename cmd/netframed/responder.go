package main

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/Zereker/netframe"
	"github.com/Zereker/netframe/frame"
	"github.com/Zereker/netframe/stream"
)

// frameConn is the part of *netframe.Conn the responder drives.
type frameConn interface {
	Write(f frame.Frame) error
	WriteTimeout(f frame.Frame, timeout time.Duration) error
	ResetStream()
	Close() error
}

// responder implements the netframed side of the protocol.
type responder struct {
	greeting     []byte
	writeTimeout time.Duration
	log          zerolog.Logger
}

// greet sends the Hello frame every new connection starts with.
func (r *responder) greet(c frameConn) error {
	if len(r.greeting) == 0 {
		return nil
	}
	return c.Write(frame.New(frame.Hello, r.greeting))
}

// reply answers one inbound frame.
func (r *responder) reply(c frameConn, f frame.Frame) error {
	switch f.Kind() {
	case frame.Ping:
		return c.WriteTimeout(frame.New(frame.Pong, f.Payload), r.writeTimeout)
	case frame.Goodbye:
		r.log.Debug().Msg("peer said goodbye")
		return c.Close()
	case frame.Reset:
		// also drops frames decoded behind it in the same read
		c.ResetStream()
		return nil
	default:
		// hello is answered with hello, so it falls through to echo
		return c.WriteTimeout(f, r.writeTimeout)
	}
}

// onError drops the connection on every error, logging framing errors louder
// than transport ones.
func (r *responder) onError(err error) netframe.ErrorAction {
	switch stream.KindOf(err) {
	case stream.FramingDelimiterMismatch, stream.StreamBytesFull, stream.StreamFailure:
		r.log.Warn().Err(err).Msg("framing error")
	default:
		r.log.Debug().Err(err).Msg("connection error")
	}
	return netframe.Disconnect
}

func (r *responder) options() []netframe.Option {
	return []netframe.Option{
		netframe.OnConnectOption(func(c *netframe.Conn) error { return r.greet(c) }),
		netframe.OnFrameOption(func(c *netframe.Conn, f frame.Frame) error { return r.reply(c, f) }),
		netframe.OnErrorOption(r.onError),
	}
}
