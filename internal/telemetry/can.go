// Package telemetry broadcasts the rescue engine's debug groups over a CAN
// bus, so ground-station tooling can observe the same slots the original
// firmware exposes via DEBUG_SET, without instrumenting the flight
// controller's own logging.
package telemetry

import (
	"context"
	"fmt"
	"net"

	"go.einride.tech/can"
	"go.einride.tech/can/pkg/socketcan"

	"github.com/aerolane/gpsrescue/internal/rescue"
)

// Frame IDs for the five debug groups. Chosen in the 0x700-0x704 range,
// clear of any standard J1939/OBD-II traffic that might share the bus.
const (
	FrameIDHeading     uint32 = 0x700
	FrameIDVelocity    uint32 = 0x701
	FrameIDThrottlePID uint32 = 0x702
	FrameIDTracking    uint32 = 0x703
	FrameIDRTH         uint32 = 0x704
)

// CANWriter is the minimal transmit capability telemetry needs, matching
// the wider codebase's CAN transmitter shape so tests can substitute a
// fake without a real bus.
type CANWriter interface {
	WriteFrame(ctx context.Context, frame can.Frame) error
	Close() error
}

// SocketCANWriter transmits over a real SocketCAN interface (e.g. "can0"
// or a "vcan0" test bus).
type SocketCANWriter struct {
	conn net.Conn
	tx   *socketcan.Transmitter
}

// NewSocketCANWriter dials iface and returns a ready SocketCANWriter.
func NewSocketCANWriter(ctx context.Context, iface string) (*SocketCANWriter, error) {
	conn, err := socketcan.DialContext(ctx, "can", iface)
	if err != nil {
		return nil, fmt.Errorf("socketcan dial %s: %w", iface, err)
	}
	return &SocketCANWriter{
		conn: conn,
		tx:   socketcan.NewTransmitter(conn),
	}, nil
}

func (w *SocketCANWriter) WriteFrame(ctx context.Context, frame can.Frame) error {
	return w.tx.TransmitFrame(ctx, frame)
}

func (w *SocketCANWriter) Close() error {
	if w.conn != nil {
		return w.conn.Close()
	}
	return nil
}

// Publisher encodes an engine's DebugGroups into five fixed-layout CAN
// frames and writes them through a CANWriter. Each frame packs its four
// slots as little-endian fixed-point int16 values (see putFixed16LE) into
// an 8-byte payload — a fixed layout
// rather than a signal-map DBC, since the slots are a firmware-internal
// debug contract, not a multi-party bus schema.
type Publisher struct {
	w CANWriter
}

// NewPublisher wraps w for debug-group publishing.
func NewPublisher(w CANWriter) *Publisher {
	return &Publisher{w: w}
}

// PublishAll encodes and writes all five debug groups from e's current
// tick. It stops at the first write error.
func (p *Publisher) PublishAll(ctx context.Context, e *rescue.Engine) error {
	d := e.Debug()
	groups := []struct {
		id   uint32
		vals [4]float64
	}{
		{FrameIDHeading, d.Heading()},
		{FrameIDVelocity, d.Velocity()},
		{FrameIDThrottlePID, d.ThrottlePID()},
		{FrameIDTracking, d.Tracking()},
		{FrameIDRTH, d.RTH()},
	}
	for _, g := range groups {
		if err := p.w.WriteFrame(ctx, encodeGroup(g.id, g.vals)); err != nil {
			return fmt.Errorf("write can frame 0x%X: %w", g.id, err)
		}
	}
	return nil
}

// encodeGroup packs four float64 debug slots into an 8-byte little-endian
// fixed-point payload, matching einride/can's Frame{ID, Length, Data} shape.
func encodeGroup(id uint32, vals [4]float64) can.Frame {
	var data [8]byte
	for i, v := range vals {
		putFixed16LE(data[i*2:i*2+2], float32(v))
	}
	return can.Frame{ID: id, Length: 8, Data: data}
}

// putFixed16LE packs v into a little-endian fixed-point int16 (one decimal
// place of precision), saturating at the int16 range. Four slots must fit
// in an 8-byte CAN payload, so a full float32 per slot is not an option.
func putFixed16LE(buf []byte, v float32) {
	scaled := int32(v * 10.0)
	if scaled > 32767 {
		scaled = 32767
	} else if scaled < -32768 {
		scaled = -32768
	}
	u := uint16(int16(scaled))
	buf[0] = byte(u)
	buf[1] = byte(u >> 8)
}
