package client

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Notifier shows messages to the user.
//
// Notifier is the authoritative feedback channel, chime is only
// a best-effort addition.
type Notifier interface {
	Flash(message string)
}

type nopNotifier struct{}

func (nopNotifier) Flash(string) {}

// WriterNotifier writes messages to writer.
type WriterNotifier struct {
	Writer io.Writer
}

// Flash writes message.
func (n WriterNotifier) Flash(message string) {
	_, _ = fmt.Fprintln(n.Writer, message)
}

// Chime plays audio cue for accepted submissions.
//
// Play before Unlock is a silent no-op and playback failures
// are swallowed.
type Chime interface {
	Unlock()
	Play()
}

type nopChime struct{}

func (nopChime) Unlock() {}

func (nopChime) Play() {}

// TerminalChime rings terminal bell.
//
// Output is acquired lazily on first Unlock.
type TerminalChime struct {
	mutex sync.Mutex
	out   io.Writer
}

// Unlock prepares chime for playback.
func (c *TerminalChime) Unlock() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.out == nil {
		c.out = os.Stdout
	}
}

// Play rings the bell if chime is unlocked.
func (c *TerminalChime) Play() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.out == nil {
		return
	}
	_, _ = c.out.Write([]byte("\a"))
}
