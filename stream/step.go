package stream

import "github.com/Zereker/netframe/frame"

// State is the engine state.
type State uint8

const (
	// Empty means no partial frame is buffered.
	Empty State = iota
	// InProgress means the buffer holds bytes of a frame that is not complete yet.
	InProgress
	// Failure is terminal: writes fail until the engine is reset.
	Failure
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case InProgress:
		return "in-progress"
	case Failure:
		return "failure"
	default:
		return "invalid"
	}
}

// Config bounds and tunes a transition.
type Config struct {
	// MaxFrames caps the decoded queue. Zero means unbounded.
	MaxFrames int
	// MaxPendingBytes caps the bytes kept after extraction. Zero means unbounded.
	MaxPendingBytes int
	// ExtractAll keeps extracting while the buffer holds complete frames.
	// When false, at most one frame is produced per write.
	ExtractAll bool
}

// Transition is the result of feeding one chunk to a state.
type Transition struct {
	State   State
	Pending []byte
	Frames  []frame.Frame
}

// Step computes the transition for input arriving while the engine is in st
// with pending buffered bytes. room is the number of frames the caller can
// still queue; Step never emits more than that.
//
// Step does not modify pending or input, and the returned Pending and frame
// payloads never share memory with them. The returned Transition is always the
// state to apply, including when an error is returned.
//
// MaxPendingBytes bounds what stays buffered once extraction is done, so a
// chunk larger than the cap is fine as long as its tail fits. A tail over the
// cap moves to Failure; frames completed by the same call are still returned.
func Step(st State, pending, input []byte, room int, cfg Config) (Transition, error) {
	switch {
	case st == Failure:
		return Transition{State: st, Pending: pending}, ErrFailure
	case room <= 0:
		return Transition{State: st, Pending: pending}, ErrMessageCountFull
	}

	t, err := extract(st, pending, input, room, cfg.ExtractAll)
	if cfg.MaxPendingBytes > 0 && len(t.Pending) > cfg.MaxPendingBytes {
		return Transition{State: Failure, Pending: pending, Frames: t.Frames}, ErrBytesFull
	}
	return t, err
}

func extract(st State, pending, input []byte, room int, all bool) (Transition, error) {
	unchanged := Transition{State: st, Pending: pending}

	total := len(pending) + len(input)
	buf := make([]byte, 0, total)
	buf = append(buf, pending...)
	buf = append(buf, input...)

	if total < frame.HeaderSize {
		return Transition{State: InProgress, Pending: buf}, nil
	}

	var frames []frame.Frame
	for {
		md, err := frame.ParseHeader(buf)
		if err != nil {
			if len(frames) == 0 && st == Empty {
				// a bad first header out of Empty leaves nothing behind
				return unchanged, FromHeader(err)
			}
			if len(frames) > 0 && len(buf) < frame.HeaderSize {
				return Transition{State: InProgress, Pending: buf, Frames: frames}, nil
			}
			return Transition{State: InProgress, Pending: buf, Frames: frames}, FromHeader(err)
		}

		n := md.Len()
		if len(buf) < n {
			return Transition{State: InProgress, Pending: buf, Frames: frames}, nil
		}

		frames = append(frames, frame.Frame{
			Tag:     md.Tag,
			Payload: buf[frame.HeaderSize:n:n],
		})
		buf = buf[n:]

		if len(buf) == 0 {
			return Transition{State: Empty, Frames: frames}, nil
		}
		if !all || len(frames) >= room {
			return Transition{State: InProgress, Pending: buf, Frames: frames}, nil
		}
	}
}
