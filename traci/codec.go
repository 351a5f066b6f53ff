package traci

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// 协议编码为大端字节序，字符串为int32长度前缀+UTF-8内容（无终止符）

// writer 协议值编码器
type writer struct {
	b bytes.Buffer
}

func (w *writer) writeUByte(v byte) {
	w.b.WriteByte(v)
}

func (w *writer) writeInt32(v int32) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(v))
	w.b.Write(buf[:])
}

func (w *writer) writeFloat64(v float64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], math.Float64bits(v))
	w.b.Write(buf[:])
}

func (w *writer) writeString(s string) {
	w.writeInt32(int32(len(s)))
	w.b.WriteString(s)
}

func (w *writer) bytes() []byte {
	return w.b.Bytes()
}

// reader 协议值解码器
// 说明：采用粘滞错误模式，首个错误后所有读取返回零值，最后统一检查Err
type reader struct {
	buf []byte
	off int
	err error
}

func newReader(buf []byte) *reader {
	return &reader{buf: buf}
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.off+n > len(r.buf) {
		r.err = fmt.Errorf("truncated payload: need %d bytes at offset %d of %d", n, r.off, len(r.buf))
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) readUByte() byte {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) readInt32() int32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return int32(binary.BigEndian.Uint32(b))
}

func (r *reader) readFloat64() float64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b))
}

func (r *reader) readString() string {
	n := r.readInt32()
	if r.err != nil {
		return ""
	}
	if n < 0 {
		r.err = fmt.Errorf("negative string length %d", n)
		return ""
	}
	b := r.take(int(n))
	if b == nil {
		return ""
	}
	return string(b)
}

func (r *reader) readStringList() []string {
	n := r.readInt32()
	if r.err != nil {
		return nil
	}
	if n < 0 {
		r.err = fmt.Errorf("negative string list length %d", n)
		return nil
	}
	out := make([]string, 0, n)
	for i := int32(0); i < n; i++ {
		out = append(out, r.readString())
		if r.err != nil {
			return nil
		}
	}
	return out
}

func (r *reader) Err() error {
	return r.err
}

// packCommand 打包单条命令
// 算法说明：
// 1. 总长≤255时：1字节长度（含长度字节与命令ID）+ 命令ID + 内容
// 2. 否则使用扩展格式：0标记 + int32总长（含标记、长度字段与命令ID）+ 命令ID + 内容
func packCommand(id byte, content []byte) []byte {
	short := 2 + len(content)
	if short <= 0xff {
		out := make([]byte, 0, short)
		out = append(out, byte(short), id)
		return append(out, content...)
	}
	total := 6 + len(content)
	out := make([]byte, 0, total)
	out = append(out, 0)
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(total))
	out = append(out, buf[:]...)
	out = append(out, id)
	return append(out, content...)
}

// respCommand 响应消息中的一条命令
type respCommand struct {
	id byte
	r  *reader
}

// splitCommands 将响应消息体拆分为命令序列
func splitCommands(msg []byte) ([]respCommand, error) {
	var cmds []respCommand
	off := 0
	for off < len(msg) {
		length := int(msg[off])
		header := 1
		if length == 0 {
			if off+5 > len(msg) {
				return nil, fmt.Errorf("truncated extended command header at offset %d", off)
			}
			length = int(int32(binary.BigEndian.Uint32(msg[off+1 : off+5])))
			header = 5
		}
		if length < header+1 || off+length > len(msg) {
			return nil, fmt.Errorf("malformed command length %d at offset %d of %d", length, off, len(msg))
		}
		cmds = append(cmds, respCommand{
			id: msg[off+header],
			r:  newReader(msg[off+header+1 : off+length]),
		})
		off += length
	}
	return cmds, nil
}
