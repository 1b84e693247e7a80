package sse

import (
	"bufio"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/insightify-ai/insightify/core/types"
	"github.com/valyala/fasthttp"
)

// Envelope is content that can be written to an event stream.
type Envelope interface {
	String() string
}

// Frame is one chat stream frame, serialized as the SSE data payload.
type Frame struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

func (f Frame) String() string {
	raw, err := json.Marshal(f)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("data: %s\n\n", raw)
}

// FromEvent converts a graph stream event into a frame.
func FromEvent(e types.StreamEvent) Frame {
	return Frame{Type: e.Type, Data: e.Data}
}

// Stream is an ordered, non-replayable event stream tied to one request's
// lifetime. The producer Sends and Closes; Serve writes frames to the client
// until the producer finishes or the client goes away.
type Stream struct {
	ch     chan Envelope
	closed chan struct{}
	gone   chan struct{}

	closeOnce sync.Once
	goneOnce  sync.Once
}

func NewStream(buffer int) *Stream {
	return &Stream{
		ch:     make(chan Envelope, buffer),
		closed: make(chan struct{}),
		gone:   make(chan struct{}),
	}
}

// Send enqueues a frame. Frames sent after the client disconnected are
// dropped; production stops naturally once the producer observes Done.
func (s *Stream) Send(e Envelope) {
	select {
	case s.ch <- e:
	case <-s.gone:
	}
}

// Close marks the producer side finished. Buffered frames are still flushed.
func (s *Stream) Close() {
	s.closeOnce.Do(func() { close(s.closed) })
}

// Done reports client disconnection, letting the producer stop early.
func (s *Stream) Done() <-chan struct{} {
	return s.gone
}

func (s *Stream) markGone() {
	s.goneOnce.Do(func() { close(s.gone) })
}

// Serve streams frames over the fiber context as server-sent events.
func (s *Stream) Serve(c *fiber.Ctx) error {
	ctx := c.Context()

	ctx.SetContentType("text/event-stream")
	ctx.Response.Header.Set("Cache-Control", "no-cache")
	ctx.Response.Header.Set("Connection", "keep-alive")
	ctx.Response.Header.Set("X-Accel-Buffering", "no")

	ctx.SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer s.markGone()

		for {
			select {
			case e := <-s.ch:
				if _, err := fmt.Fprint(w, e.String()); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			case <-s.closed:
				// Drain whatever the producer managed to enqueue.
				for {
					select {
					case e := <-s.ch:
						if _, err := fmt.Fprint(w, e.String()); err != nil {
							return
						}
						if err := w.Flush(); err != nil {
							return
						}
					default:
						return
					}
				}
			case <-ctx.Done():
				return
			}
		}
	}))

	return nil
}
