package traci

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"time"
)

// conn 基于TCP的消息传输层
// 说明：每条消息为int32总长（含长度字段自身）+ 消息体，读写各设置IO超时
type conn struct {
	c       net.Conn
	timeout time.Duration
}

func newConn(c net.Conn, timeout time.Duration) *conn {
	return &conn{c: c, timeout: timeout}
}

// roundTrip 发送一条请求消息并读取一条响应消息
func (t *conn) roundTrip(payload []byte) ([]byte, error) {
	if err := t.send(payload); err != nil {
		return nil, err
	}
	return t.receive()
}

func (t *conn) send(payload []byte) error {
	if t.timeout > 0 {
		if err := t.c.SetWriteDeadline(time.Now().Add(t.timeout)); err != nil {
			return fmt.Errorf("set write deadline: %w", err)
		}
	}
	msg := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(msg[:4], uint32(4+len(payload)))
	copy(msg[4:], payload)
	if _, err := t.c.Write(msg); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

func (t *conn) receive() ([]byte, error) {
	if t.timeout > 0 {
		if err := t.c.SetReadDeadline(time.Now().Add(t.timeout)); err != nil {
			return nil, fmt.Errorf("set read deadline: %w", err)
		}
	}
	var head [4]byte
	if _, err := io.ReadFull(t.c, head[:]); err != nil {
		return nil, fmt.Errorf("read message length: %w", err)
	}
	total := int(int32(binary.BigEndian.Uint32(head[:])))
	if total < 4 || total > maxMessageSize {
		return nil, fmt.Errorf("invalid message length %d", total)
	}
	body := make([]byte, total-4)
	if _, err := io.ReadFull(t.c, body); err != nil {
		return nil, fmt.Errorf("read message body: %w", err)
	}
	return body, nil
}

func (t *conn) Close() error {
	return t.c.Close()
}
