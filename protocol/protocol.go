// Package protocol implements the Nightsky upload wire format: the fixed
// ASCII tokens exchanged with the board and the run-length records that
// carry a compressed clip.
package protocol

// Version represents the host protocol version
const Version = "1.0.0"

// Token size and the fixed tokens of the exchange
const (
	TokenSize = 4 // Every reply is read as up to 4 bytes

	// Discovery
	TokenPing = "ping"
	TokenPong = "nsd1" // Pong of a first-generation Nightsky board

	// Upload
	TokenHelo = "helo" // Handshake request and reply
	TokenOK   = "ok"   // Record accepted
	TokenDone = "done" // Device buffer full while streaming, or end acknowledged
)

// EndOfStream terminates a record stream. Records are always 5 bytes, so
// the device takes a 2-byte write of zeros as the end marker.
var EndOfStream = []byte{0x00, 0x00}

// Record layout
const (
	RecordSize = 5  // Bytes per record on the wire
	MaskBits   = 30 // Bits 0-29: star mask
	RunShift   = MaskBits
	RunBits    = RecordSize*8 - MaskBits // Bits 30-39: run length

	MaskLimit = 1 << MaskBits     // Exclusive upper bound of a mask
	MaxRun    = 1<<RunBits - 1    // Longest run a single record can carry
	noMask    = uint32(MaskLimit) // Sentinel: no run in progress
)
