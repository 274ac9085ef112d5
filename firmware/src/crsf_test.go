//go:build crsf
// +build crsf

package main

import (
	"io"
	"testing"
	"time"
)

// fakeRxUART is a minimal rxUARTLink backed by an in-memory byte slice,
// standing in for the receiver UART in tests.
type fakeRxUART struct {
	data []byte
	pos  int
}

func (f *fakeRxUART) Buffered() int {
	if f.pos >= len(f.data) {
		return 0
	}
	return len(f.data) - f.pos
}

func (f *fakeRxUART) ReadByte() (byte, error) {
	if f.pos >= len(f.data) {
		return 0, io.EOF
	}
	b := f.data[f.pos]
	f.pos++
	return b, nil
}

// TestReadReceiverDecodesValidPacket feeds one valid CRSF RC-channels
// packet through the real parser and checks it lands in Channels via the
// same PacketReady handoff readIBus uses.
func TestReadReceiverDecodesValidPacket(t *testing.T) {
	packet := []byte{
		0xc8, 0x18, 0x16, 0xe0, 0x03, 0x1f, 0xf8, 0xc0, 0x07, 0x3e, 0xf0, 0x81, 0x0f, 0x7c,
		0xe0, 0x03, 0x1f, 0xf8, 0xc0, 0x07, 0x3e, 0xf0, 0x81, 0x0f, 0x7c, 0xad,
	}
	rxUART = &fakeRxUART{data: packet}

	go readReceiver()

	select {
	case <-PacketReady:
	case <-time.After(50 * time.Millisecond):
		t.Fatal("timeout: readReceiver did not produce a packet")
	}

	want := processReceiverPacket([CRSF_PACKET_SIZE]byte(packet))
	got := GetChannels()
	if got != want {
		t.Errorf("Channels = %v, want %v", got, want)
	}
}

// TestReadReceiverDiscardsBadChecksum checks that a packet with a
// corrupted checksum never reaches Channels.
func TestReadReceiverDiscardsBadChecksum(t *testing.T) {
	packet := []byte{
		0xc8, 0x18, 0x16, 0xe0, 0x03, 0x1f, 0xf8, 0xc0, 0x07, 0x3e, 0xf0, 0x81, 0x0f, 0x7c,
		0xe0, 0x03, 0x1f, 0xf8, 0xc0, 0x07, 0x3e, 0xf0, 0x81, 0x0f, 0x7c, 0x00, // corrupted CRC
	}
	rxUART = &fakeRxUART{data: packet}
	UpdateChannels([NumChannels]uint16{})

	go readReceiver()

	select {
	case <-PacketReady:
		t.Fatal("a bad-checksum packet must not signal PacketReady")
	case <-time.After(20 * time.Millisecond):
	}
}
