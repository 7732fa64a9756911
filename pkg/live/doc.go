// Package live implements the duplex websocket connection to the
// conversational inference endpoint and the session lifecycle around it:
// microphone frames stream up, synthesized speech and tool calls stream
// down, and a small state machine guards start, stop and barge-in.
package live
