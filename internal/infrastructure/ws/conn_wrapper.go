package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// connWrapper serialises writes; gorilla allows one concurrent writer.
type connWrapper struct {
	conn  *websocket.Conn
	mutex sync.Mutex
}

func newConnWrapper(c *websocket.Conn) *connWrapper {
	return &connWrapper{conn: c}
}

func (w *connWrapper) Write(messageType int, data []byte, deadline time.Time) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	_ = w.conn.SetWriteDeadline(deadline)
	return w.conn.WriteMessage(messageType, data)
}

func (w *connWrapper) Close() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.conn.Close()
}
