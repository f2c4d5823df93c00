package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

const (
	// SampleRate is the capture rate uploaded to the translation function.
	SampleRate = 16000
	// Channels is fixed to mono.
	Channels = 1

	// 20ms of mono s16 at SampleRate.
	fragmentSizeBytes = SampleRate / 50 * 2
)

// Capture records one Pulse source into memory until stopped.
// It is the io.Writer the record stream drains into.
type Capture struct {
	device Device

	client *pulse.Client
	stream *pulse.RecordStream

	mu     sync.Mutex
	pcm    bytes.Buffer
	closed bool

	stopOnce sync.Once
	done     chan struct{}
}

func newCapture(device Device) *Capture {
	return &Capture{device: device, done: make(chan struct{})}
}

// StartCapture opens a 16kHz mono s16 record stream on device.
// Cancelling ctx stops the capture.
func StartCapture(ctx context.Context, device Device) (*Capture, error) {
	client, err := newPulseClient()
	if err != nil {
		return nil, err
	}
	source, err := client.SourceByID(device.ID)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("resolve source %q: %w", device.ID, err)
	}

	c := newCapture(device)
	c.client = client
	c.stream, err = client.NewRecord(
		pulse.NewWriter(c, pulseproto.FormatInt16LE),
		pulse.RecordSource(source),
		pulse.RecordMono,
		pulse.RecordSampleRate(SampleRate),
		pulse.RecordBufferFragmentSize(fragmentSizeBytes),
		pulse.RecordMediaName("babel utterance"),
	)
	if err != nil {
		_ = c.Stop()
		return nil, fmt.Errorf("create pulse record stream: %w", err)
	}
	c.stream.Start()

	go func() {
		select {
		case <-ctx.Done():
			_ = c.Stop()
		case <-c.done:
		}
	}()
	return c, nil
}

// Device is the source being recorded.
func (c *Capture) Device() Device {
	return c.device
}

// Write appends frames from the record stream. After Stop it reports io.EOF.
func (c *Capture) Write(frame []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, io.EOF
	}
	return c.pcm.Write(frame)
}

// BytesCaptured reports how much PCM has been buffered.
func (c *Capture) BytesCaptured() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int64(c.pcm.Len())
}

// RawPCM returns a copy of the buffered PCM.
func (c *Capture) RawPCM() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return bytes.Clone(c.pcm.Bytes())
}

// Stop closes the stream and the Pulse connection. Later calls are no-ops.
func (c *Capture) Stop() error {
	c.stopOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		close(c.done)

		if c.stream != nil {
			c.stream.Stop()
			c.stream.Close()
		}
		if c.client != nil {
			c.client.Close()
		}
	})
	return nil
}
