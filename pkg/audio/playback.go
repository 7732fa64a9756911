package audio

import (
	"log/slog"
	"sync"
	"time"
)

// InputSampleRate is the capture rate sent to the endpoint.
const InputSampleRate = 16000

// OutputSampleRate is the rate of decoded endpoint audio.
const OutputSampleRate = 24000

// PCMDuration returns the play time of 16-bit mono PCM at the given rate.
func PCMDuration(pcm []byte, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	samples := len(pcm) / 2
	return time.Duration(samples) * time.Second / time.Duration(sampleRate)
}

// Sink receives buffers when their scheduled start time arrives.
type Sink interface {
	// Play outputs one PCM buffer. Called from a timer goroutine.
	Play(pcm []byte)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(pcm []byte)

func (f SinkFunc) Play(pcm []byte) { f(pcm) }

type scheduled struct {
	start    time.Time
	end      time.Time
	playTmr  *time.Timer
	doneTmr  *time.Timer
	canceled bool
}

// Playback schedules decoded audio buffers for gapless, non-overlapping
// output. Start times are monotonically non-decreasing for the life of the
// scheduler: each buffer begins at max(now, end of the previous buffer).
// Interrupt cancels everything in flight and resets the schedule to now.
type Playback struct {
	clock      Clock
	sink       Sink
	sampleRate int
	onSpeaking func(bool)
	afterFunc  func(d time.Duration, f func()) *time.Timer

	mu       sync.Mutex
	nextFree time.Time
	inflight map[*scheduled]struct{}
	speaking bool
	closed   bool
}

// PlaybackOption configures a Playback.
type PlaybackOption func(*Playback)

// WithClock overrides the output clock.
func WithClock(c Clock) PlaybackOption {
	return func(p *Playback) { p.clock = c }
}

// WithOnSpeaking registers a callback fired when the scheduler transitions
// between "at least one buffer in flight" and "idle".
func WithOnSpeaking(fn func(bool)) PlaybackOption {
	return func(p *Playback) { p.onSpeaking = fn }
}

// WithAfterFunc overrides timer creation, for tests.
func WithAfterFunc(fn func(d time.Duration, f func()) *time.Timer) PlaybackOption {
	return func(p *Playback) { p.afterFunc = fn }
}

// NewPlayback creates a scheduler writing to sink at the given sample rate.
func NewPlayback(sink Sink, sampleRate int, opts ...PlaybackOption) *Playback {
	p := &Playback{
		clock:      SystemClock(),
		sink:       sink,
		sampleRate: sampleRate,
		afterFunc:  time.AfterFunc,
		inflight:   make(map[*scheduled]struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Schedule enqueues one decoded PCM buffer. The buffer starts at
// max(now, nextFree); silence gaps are fine, overlaps never happen.
// Returns the scheduled start time.
func (p *Playback) Schedule(pcm []byte) time.Time {
	dur := PCMDuration(pcm, p.sampleRate)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return time.Time{}
	}
	now := p.clock.Now()
	start := now
	if p.nextFree.After(start) {
		start = p.nextFree
	}
	end := start.Add(dur)
	p.nextFree = end

	s := &scheduled{start: start, end: end}
	p.inflight[s] = struct{}{}
	p.setSpeakingLocked(true)

	buf := pcm
	s.playTmr = p.afterFunc(start.Sub(now), func() {
		p.mu.Lock()
		canceled := s.canceled
		p.mu.Unlock()
		if !canceled && p.sink != nil {
			p.sink.Play(buf)
		}
	})
	s.doneTmr = p.afterFunc(end.Sub(now), func() {
		p.mu.Lock()
		delete(p.inflight, s)
		if len(p.inflight) == 0 {
			p.setSpeakingLocked(false)
		}
		p.mu.Unlock()
	})
	p.mu.Unlock()

	return start
}

// Interrupt handles barge-in: every buffer not yet finished is stopped, the
// in-flight set is cleared and the schedule resets to now, so the next
// buffer starts fresh instead of queuing behind cancelled audio.
func (p *Playback) Interrupt() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for s := range p.inflight {
		s.canceled = true
		if s.playTmr != nil {
			s.playTmr.Stop()
		}
		if s.doneTmr != nil {
			s.doneTmr.Stop()
		}
		delete(p.inflight, s)
	}
	p.nextFree = p.clock.Now()
	p.setSpeakingLocked(false)
	slog.Debug("playback: interrupted, queue cleared")
}

// Speaking reports whether at least one buffer is in flight.
func (p *Playback) Speaking() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.speaking
}

// NextFree returns the next schedulable start time.
func (p *Playback) NextFree() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.nextFree
}

// Close cancels all in-flight buffers and rejects further scheduling.
func (p *Playback) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for s := range p.inflight {
		s.canceled = true
		if s.playTmr != nil {
			s.playTmr.Stop()
		}
		if s.doneTmr != nil {
			s.doneTmr.Stop()
		}
		delete(p.inflight, s)
	}
	p.setSpeakingLocked(false)
	p.closed = true
}

func (p *Playback) setSpeakingLocked(v bool) {
	if p.speaking == v {
		return
	}
	p.speaking = v
	if p.onSpeaking != nil {
		go p.onSpeaking(v)
	}
}
