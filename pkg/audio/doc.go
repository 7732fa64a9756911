// Package audio provides the capture-side frame encoder and the output-side
// playback scheduler for a voice session.
//
// The encoder turns raw sample blocks into fixed-duration 16-bit little
// endian mono PCM frames for the wire. The playback scheduler turns decoded
// buffers arriving at arbitrary times into gapless, non-overlapping output,
// and supports immediate barge-in cancellation.
package audio
