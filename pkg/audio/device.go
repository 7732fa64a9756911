package audio

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"sync"
)

// Capture is a source of raw little-endian 16-bit PCM from the microphone.
// Read blocks until at least one byte is available or the source is closed.
type Capture interface {
	Start(ctx context.Context) error
	Read(p []byte) (int, error)
	Close() error
}

// FFmpegCapture records the default microphone by running ffmpeg and reading
// s16le PCM from its stdout. Device is the platform device string; empty
// picks a sensible default for the host OS.
type FFmpegCapture struct {
	Device     string
	SampleRate int

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdout io.ReadCloser
	reader *bufio.Reader
}

// Start launches the ffmpeg process. It is an error to start twice.
func (c *FFmpegCapture) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cmd != nil {
		return fmt.Errorf("audio: capture already started")
	}

	rate := c.SampleRate
	if rate == 0 {
		rate = InputSampleRate
	}

	format, device := captureInput(c.Device)
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-f", format,
		"-i", device,
		"-ac", "1",
		"-ar", fmt.Sprint(rate),
		"-f", "s16le",
		"-",
	}
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("audio: capture stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("audio: start ffmpeg: %w", err)
	}

	c.cmd = cmd
	c.stdout = stdout
	c.reader = bufio.NewReaderSize(stdout, 64*1024)
	return nil
}

func captureInput(device string) (format, input string) {
	switch runtime.GOOS {
	case "darwin":
		if device == "" {
			device = "none:0"
		}
		return "avfoundation", device
	case "windows":
		if device == "" {
			device = "audio=default"
		}
		return "dshow", device
	default:
		if device == "" {
			device = "default"
		}
		return "alsa", device
	}
}

func (c *FFmpegCapture) Read(p []byte) (int, error) {
	c.mu.Lock()
	r := c.reader
	c.mu.Unlock()
	if r == nil {
		return 0, io.EOF
	}
	return r.Read(p)
}

// Close kills the ffmpeg process. Safe to call more than once.
func (c *FFmpegCapture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cmd == nil {
		return nil
	}
	if c.stdout != nil {
		c.stdout.Close()
	}
	if c.cmd.Process != nil {
		c.cmd.Process.Kill()
		c.cmd.Wait()
	}
	c.cmd = nil
	c.reader = nil
	return nil
}

// FFplaySink plays s16le PCM by piping it to an ffplay process.
type FFplaySink struct {
	SampleRate int

	mu    sync.Mutex
	cmd   *exec.Cmd
	stdin io.WriteCloser
}

// Start launches the ffplay process.
func (s *FFplaySink) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd != nil {
		return fmt.Errorf("audio: sink already started")
	}

	rate := s.SampleRate
	if rate == 0 {
		rate = OutputSampleRate
	}
	cmd := exec.CommandContext(ctx, "ffplay",
		"-f", "s16le",
		"-ar", fmt.Sprint(rate),
		"-ac", "1",
		"-nodisp",
		"-loglevel", "error",
		"-",
	)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("audio: sink stdin: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("audio: start ffplay: %w", err)
	}
	s.cmd = cmd
	s.stdin = stdin
	return nil
}

// Play writes one PCM chunk to the player.
func (s *FFplaySink) Play(pcm []byte) {
	s.mu.Lock()
	w := s.stdin
	s.mu.Unlock()
	if w == nil {
		return
	}
	w.Write(pcm)
}

// Close stops the player process. Safe to call more than once.
func (s *FFplaySink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd == nil {
		return nil
	}
	s.stdin.Close()
	if s.cmd.Process != nil {
		s.cmd.Process.Kill()
		s.cmd.Wait()
	}
	s.cmd = nil
	s.stdin = nil
	return nil
}
