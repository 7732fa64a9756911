package audio

import (
	"encoding/binary"
	"fmt"
	"time"

	resampling "github.com/tphakala/go-audio-resampling"
)

// DefaultFrameDuration is the wire frame size for captured audio.
const DefaultFrameDuration = 20 * time.Millisecond

// FrameEncoder converts a continuous stream of raw mono samples into
// fixed-size 16-bit little endian PCM frames. It is pure accumulation;
// device failures are the capture owner's concern.
type FrameEncoder struct {
	sampleRate int
	frameBytes int
	pending    []byte
}

// NewFrameEncoder creates an encoder emitting frames of the given duration.
func NewFrameEncoder(sampleRate int, frameDuration time.Duration) *FrameEncoder {
	if sampleRate <= 0 {
		sampleRate = InputSampleRate
	}
	if frameDuration <= 0 {
		frameDuration = DefaultFrameDuration
	}
	samples := int(int64(sampleRate) * int64(frameDuration) / int64(time.Second))
	if samples < 1 {
		samples = 1
	}
	return &FrameEncoder{
		sampleRate: sampleRate,
		frameBytes: samples * 2,
	}
}

// FrameBytes returns the size of one complete frame.
func (e *FrameEncoder) FrameBytes() int { return e.frameBytes }

// PushInt16 appends samples and returns all complete frames now available.
func (e *FrameEncoder) PushInt16(samples []int16) [][]byte {
	for _, s := range samples {
		e.pending = binary.LittleEndian.AppendUint16(e.pending, uint16(s))
	}
	return e.drain()
}

// PushFloat32 appends normalized [-1, 1] samples, clipping out-of-range
// values, and returns all complete frames now available.
func (e *FrameEncoder) PushFloat32(samples []float32) [][]byte {
	for _, f := range samples {
		switch {
		case f > 1:
			f = 1
		case f < -1:
			f = -1
		}
		s := int16(f * 32767)
		e.pending = binary.LittleEndian.AppendUint16(e.pending, uint16(s))
	}
	return e.drain()
}

// PushBytes appends already-encoded PCM16LE bytes and returns complete
// frames.
func (e *FrameEncoder) PushBytes(pcm []byte) [][]byte {
	e.pending = append(e.pending, pcm...)
	return e.drain()
}

// Flush returns the trailing partial frame, zero-padded to full size, or nil
// when nothing is pending.
func (e *FrameEncoder) Flush() []byte {
	if len(e.pending) == 0 {
		return nil
	}
	frame := make([]byte, e.frameBytes)
	copy(frame, e.pending)
	e.pending = e.pending[:0]
	return frame
}

func (e *FrameEncoder) drain() [][]byte {
	var frames [][]byte
	for len(e.pending) >= e.frameBytes {
		frame := make([]byte, e.frameBytes)
		copy(frame, e.pending[:e.frameBytes])
		e.pending = e.pending[e.frameBytes:]
		frames = append(frames, frame)
	}
	return frames
}

// CaptureResampler converts mono PCM16LE captured at an arbitrary device
// rate to the wire input rate before frame encoding.
type CaptureResampler struct {
	rs      resampling.Resampler
	srcRate int
	dstRate int
}

// NewCaptureResampler creates a resampler from srcRate to dstRate. When the
// rates match it passes data through untouched.
func NewCaptureResampler(srcRate, dstRate int) (*CaptureResampler, error) {
	cr := &CaptureResampler{srcRate: srcRate, dstRate: dstRate}
	if srcRate == dstRate {
		return cr, nil
	}
	rs, err := resampling.New(&resampling.Config{
		InputRate:  float64(srcRate),
		OutputRate: float64(dstRate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("audio: create resampler: %w", err)
	}
	cr.rs = rs
	return cr, nil
}

// Process converts one block of PCM16LE bytes. Output length follows the
// rate ratio; short blocks may produce no output until the filter fills.
func (c *CaptureResampler) Process(pcm []byte) ([]byte, error) {
	if c.rs == nil {
		return pcm, nil
	}
	n := len(pcm) / 2
	in := make([]float64, n)
	for i := 0; i < n; i++ {
		s := int16(binary.LittleEndian.Uint16(pcm[i*2:]))
		in[i] = float64(s) / 32768.0
	}
	out, err := c.rs.Process(in)
	if err != nil {
		return nil, fmt.Errorf("audio: resample: %w", err)
	}
	res := make([]byte, len(out)*2)
	for i, f := range out {
		switch {
		case f > 1:
			f = 1
		case f < -1:
			f = -1
		}
		binary.LittleEndian.PutUint16(res[i*2:], uint16(int16(f*32767)))
	}
	return res, nil
}
