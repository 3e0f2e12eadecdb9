package uavtalk

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	SyncByte      = 0x3C
	TypeVersion   = 0x20
	TypeObject    = TypeVersion | 0x00
	HeaderSize    = 8
	CRCSize       = 1
	MaxDataLength = 255
)

// Frame is one UAVTalk message.
type Frame struct {
	Type     uint8
	ObjectID uint32
	Data     []byte
}

// EncodeFrame builds the wire form of f.
//
// Layout (little-endian):
//
//	sync     uint8
//	type     uint8
//	length   uint16 (header + data, excluding crc)
//	objectID uint32
//	data     length-8 bytes
//	crc      uint8, CRC-8 over everything before it
func EncodeFrame(f Frame) ([]byte, error) {
	if len(f.Data) > MaxDataLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrDataTooLong, len(f.Data))
	}

	buf := make([]byte, 0, HeaderSize+len(f.Data)+CRCSize)
	buf = append(buf, SyncByte, f.Type)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(HeaderSize+len(f.Data))) //nolint:gosec // bounded by MaxDataLength
	buf = binary.LittleEndian.AppendUint32(buf, f.ObjectID)
	buf = append(buf, f.Data...)
	buf = append(buf, CRC8(buf))
	return buf, nil
}

// DecodeFrame parses the frame at the start of buf and returns it along
// with the number of bytes consumed.
func DecodeFrame(buf []byte) (Frame, int, error) {
	if len(buf) < HeaderSize+CRCSize {
		return Frame{}, 0, fmt.Errorf("%w: got %d bytes, need %d", ErrShortFrame, len(buf), HeaderSize+CRCSize)
	}
	if buf[0] != SyncByte {
		return Frame{}, 0, fmt.Errorf("%w: 0x%02x", ErrBadSync, buf[0])
	}

	length := int(binary.LittleEndian.Uint16(buf[2:4]))
	if length < HeaderSize || length > HeaderSize+MaxDataLength {
		return Frame{}, 0, fmt.Errorf("%w: declared %d", ErrBadLength, length)
	}
	if len(buf) < length+CRCSize {
		return Frame{}, 0, fmt.Errorf("%w: got %d bytes, need %d", ErrShortFrame, len(buf), length+CRCSize)
	}
	if got, want := buf[length], CRC8(buf[:length]); got != want {
		return Frame{}, 0, fmt.Errorf("%w: got 0x%02x, want 0x%02x", ErrBadCRC, got, want)
	}

	f := Frame{
		Type:     buf[1],
		ObjectID: binary.LittleEndian.Uint32(buf[4:8]),
		Data:     append([]byte(nil), buf[HeaderSize:length]...),
	}
	return f, length + CRCSize, nil
}

// ReadFrame reads one complete frame from r.
func ReadFrame(r io.Reader) (Frame, error) {
	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return Frame{}, fmt.Errorf("read header: %w", err)
	}
	if header[0] != SyncByte {
		return Frame{}, fmt.Errorf("%w: 0x%02x", ErrBadSync, header[0])
	}

	length := int(binary.LittleEndian.Uint16(header[2:4]))
	if length < HeaderSize || length > HeaderSize+MaxDataLength {
		return Frame{}, fmt.Errorf("%w: declared %d", ErrBadLength, length)
	}

	buf := make([]byte, length+CRCSize)
	copy(buf, header)
	if _, err := io.ReadFull(r, buf[HeaderSize:]); err != nil {
		return Frame{}, fmt.Errorf("read payload: %w", err)
	}

	f, _, err := DecodeFrame(buf)
	return f, err
}

var crcTable = func() [256]uint8 {
	var t [256]uint8
	for i := range t {
		c := uint8(i) //nolint:gosec // i < 256
		for range 8 {
			if c&0x80 != 0 {
				c = c<<1 ^ 0x07
			} else {
				c <<= 1
			}
		}
		t[i] = c
	}
	return t
}()

// CRC8 computes the CRC-8 (polynomial 0x07, initial value 0) of data.
func CRC8(data []byte) uint8 {
	var crc uint8
	for _, b := range data {
		crc = crcTable[crc^b]
	}
	return crc
}
