package main

import (
	"sync"
	"time"
)

// rxUARTLink is the subset of *machine.UART the receiver protocol parsers
// (iBus, CRSF) need. Declaring it as an interface lets a build-tag-gated
// parser swap in a fake for testing without touching the real UART setup
// in setupHardware.
type rxUARTLink interface {
	ReadByte() (byte, error)
	Buffered() int
}

var (
	// rxUART is set to the configured receiver UART once during
	// setupHardware and read by whichever protocol parser startReceiver
	// launches.
	rxUART rxUARTLink

	// Channels is a globally shared array to store the RC receiver channel data.
	// It is written by the receiver parser (iBus, or CRSF/ELRS with the
	// "crsf" tag), which runs in its own goroutine, and read by the main
	// loop. The mutex protects it from that concurrent access.
	Channels [NumChannels]uint16

	// A mutex to protect the Channels array from concurrent writes.
	channelsMutex sync.Mutex

	// A channel to signal that a new packet is ready to be processed.
	// This is a buffered channel so the sender (parser) doesn't block
	// waiting for the receiver (main loop).
	PacketReady = make(chan struct{}, 1)

	// LastPacketTime stores the timestamp of the last valid receiver packet.
	LastPacketTime time.Time
)

// UpdateChannels is a safe way to write to the global Channels array.
func UpdateChannels(newChannels [NumChannels]uint16) {
	channelsMutex.Lock()
	defer channelsMutex.Unlock()
	Channels = newChannels
}

// GetChannels is a safe way to read from the global Channels array.
func GetChannels() [NumChannels]uint16 {
	channelsMutex.Lock()
	defer channelsMutex.Unlock()
	return Channels
}
