//go:build crsf
// +build crsf

package main

import "time"

// CRSF (Crossfire) protocol receiver implementation, used by TBS
// Crossfire and ExpressLRS for RC link. This is an alternate receiver
// protocol to the default iBus parser in ibus.go, selected by building
// with the "crsf" tag. Like readIBus, readReceiver runs as its own
// goroutine and hands decoded channels to the main loop through
// channels.go's mutex-guarded Channels array and buffered PacketReady
// signal rather than a channel of whole packets.

const (
	// CRSF uses 0xC8 as the address for the flight controller sync byte
	CRSF_FLIGHT_CONTROLLER     = 0xC8
	CRSF_FRAMETYPE_RC_CHANNELS = 0x16

	// A standard RC channels packed packet is 26 bytes long.
	// 1 (sync) + 1 (length) + 1 (type) + 22 (payload) + 1 (CRC) = 26 bytes
	CRSF_PACKET_SIZE = 26

	CRSF_CHANNEL_VALUE_MIN = 172  // 987us
	CRSF_CHANNEL_VALUE_MAX = 1811 // 2012us

	// ELRS=420000 CRSF=416666 Radiomaster/ELRS=115200???
	BAUD_RATE = 420000
)

// startReceiver launches the CRSF parser.
func startReceiver() {
	go readReceiver()
}

// CRSF State Machine States
type CRSFState int

const (
	DESTINATION CRSFState = iota
	TYPE
	LENGTH
	PAYLOAD
	CHECKSUM
)

// readReceiver reads CRSF packets from the receiver UART and, once a
// packet's checksum validates, decodes its channels and hands them to
// the main loop the same way applyIBusPacket does.
func readReceiver() {
	var packet [CRSF_PACKET_SIZE]byte
	var packetIndex uint8
	var state CRSFState = DESTINATION
	var length uint8

	resetState := func() {
		packet = [CRSF_PACKET_SIZE]byte{}
		packetIndex = 0
		state = DESTINATION
	}

	for {
		if rxUART.Buffered() == 0 {
			continue
		}

		b, err := rxUART.ReadByte()
		if err != nil {
			continue
		}

		switch state {
		case DESTINATION:
			// Wait for the destination byte.
			if b == CRSF_FLIGHT_CONTROLLER {
				packet[packetIndex] = b
				packetIndex = 1
				state = LENGTH
			}

		case LENGTH:
			length = b
			// The length byte includes the type and payload but not the
			// destination byte. The minimum is 2 (type + CRC); the
			// maximum is 64. A standard RC packet is 24.
			if length >= 2 && length <= 64 {
				packet[packetIndex] = length
				packetIndex++
				state = TYPE
			} else {
				resetState()
			}

		case TYPE:
			if b == CRSF_FRAMETYPE_RC_CHANNELS {
				packet[packetIndex] = b
				packetIndex++
				state = PAYLOAD
			} else {
				resetState()
			}

		case PAYLOAD:
			packet[packetIndex] = b
			packetIndex++
			if packetIndex >= length+1 {
				state = CHECKSUM
			}

		case CHECKSUM:
			// The CRC8 is calculated over the frame, from after the
			// length byte at index 2 to the end of the payload at
			// packetIndex.
			if calculateCrc8(packet[2:packetIndex]) == b {
				UpdateChannels(processReceiverPacket(packet))
				LastPacketTime = time.Now()
				select {
				case PacketReady <- struct{}{}:
				default:
				}
			} else {
				println("Checksum mismatch. Discarding packet.")
			}
			resetState()
		}
	}
}

// processReceiverPacket unpacks the 11-bit channel values from a CRSF
// packet payload. This function is based on the robust bit-packing logic
// from BetaFlight.
func processReceiverPacket(payload [CRSF_PACKET_SIZE]byte) [NumChannels]uint16 {
	// The RC channel data starts at byte 3 of the packet
	const payloadStartIndex = 3
	// The payload is from index 3 to the checksum byte's index (25) - 1
	bitstream := payload[payloadStartIndex : CRSF_PACKET_SIZE-1]

	var channelValues [NumChannels]uint16
	var bitsMerged uint
	var readValue uint32
	var readByteIndex uint

	for n := 0; n < NumChannels; n++ {
		for bitsMerged < 11 {
			// Add a boundary check to prevent out of range access
			if readByteIndex >= uint(len(bitstream)) {
				return channelValues
			}
			readByte := bitstream[readByteIndex]
			readByteIndex++
			readValue |= uint32(readByte) << bitsMerged
			bitsMerged += 8
		}
		channelValues[n] = uint16(readValue & 0x07FF)
		readValue >>= 11
		bitsMerged -= 11
	}
	return channelValues
}

// calculateCrc8 computes the CRC8 checksum for a CRSF packet. The CRC8
// algorithm for CRSF is a specific implementation of CRC8-DVB-S2.
func calculateCrc8(data []byte) byte {
	crc := byte(0x00)
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if (crc & 0x80) != 0 {
				crc = (crc << 1) ^ 0xD5
			} else {
				crc = crc << 1
			}
		}
	}
	return crc
}
