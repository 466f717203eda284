package main

import (
	"bytes"
	"context"
	"net"
	"time"

	"github.com/pkg/errors"

	"github.com/Zereker/netframe/frame"
	"github.com/Zereker/netframe/stream"
)

// expectedReply returns the tag the daemon answers req with.
func expectedReply(req frame.Tag) frame.Tag {
	if req == frame.Ping {
		return frame.Pong
	}
	return req
}

// ping sends req to addr and returns every frame received up to and including
// the reply, greeting first. The reply is the first frame of the expected tag
// carrying req's payload.
func ping(ctx context.Context, addr string, req frame.Frame, timeout time.Duration) ([]frame.Frame, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", addr)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	b, err := frame.Encode(req)
	if err != nil {
		return nil, stream.Wrap(stream.StreamMessageTooLong, err)
	}
	if _, err := conn.Write(b); err != nil {
		return nil, stream.Wrap(stream.WriteFailure, err)
	}

	want := expectedReply(req.Kind())
	engine := stream.New(stream.WithExtractAll())
	buf := make([]byte, 4096)

	var got []frame.Frame
	for {
		for {
			f, err := engine.Next()
			if err != nil {
				break
			}
			got = append(got, f)
			if f.Kind() == want && bytes.Equal(f.Payload, req.Payload) {
				return got, nil
			}
		}

		n, err := conn.Read(buf)
		if n > 0 {
			if werr := engine.Write(buf[:n]); werr != nil {
				return got, werr
			}
			continue
		}
		if err != nil {
			return got, stream.Wrap(stream.ReadFailure, err)
		}
	}
}
