// Package transport carries protocol packets over byte streams and
// WebSocket connections.
//
// Conn wraps a stream such as a net.Conn and reads VarInt length-prefixed
// frames from it, optionally in the compressed framing once SetCompression
// has been called. WSConn maps one binary WebSocket message to one frame.
//
// Both record every packet through an optional Observer (see package
// metrics) and an OpenTelemetry span. Any read error leaves the stream
// misaligned; callers should Reject or Close the connection.
package transport
