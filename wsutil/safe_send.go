package wsutil

import "log/slog"

// SafeSend queues data on a connection's outbound channel and reports whether
// it was accepted. A nil channel, a closed channel (the connection is gone)
// and a full buffer (the client is not draining) all drop the message.
func SafeSend(ch chan []byte, data []byte) (delivered bool) {
	if ch == nil {
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("send on closed channel", "tag", "wsutil", "panic", r)
			delivered = false
		}
	}()
	select {
	case ch <- data:
		return true
	default:
		slog.Warn("outbound buffer full, dropping message", "tag", "wsutil", "bytes", len(data))
		return false
	}
}
