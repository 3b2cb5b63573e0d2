package protocol

import "encoding/json"

const Version = "1.0"

// Message types on the observer stream.
const (
	TypeHello   = "HELLO"
	TypeWelcome = "WELCOME"
	TypeTrace   = "TRACE"
	TypeVoxels  = "VOXELS"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}

// HELLO (observer -> bot)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	// SinceTick skips buffered events older than this tick.
	SinceTick uint64 `json:"since_tick,omitempty"`
}

// WELCOME (bot -> observer)
type WelcomeMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	SessionID       string         `json:"session_id"`
	Catalogs        CatalogDigests `json:"catalogs"`
}

type CatalogDigests struct {
	BlockPalette PaletteDigest `json:"block_palette"`
	ItemPalette  PaletteDigest `json:"item_palette"`
}

type PaletteDigest struct {
	Digest string `json:"digest"`
	Count  int    `json:"count"`
}

// TRACE (bot -> observer)
type TraceMsg struct {
	Type            string       `json:"type"`
	ProtocolVersion string       `json:"protocol_version"`
	Events          []TraceEvent `json:"events"`
}

// VOXELS (bot -> observer) is a cube of block palette ids around the agent, x
// fastest, then z, then y.
type VoxelsMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`
	Origin          [3]int `json:"origin"`
	Dim             int    `json:"dim"`
	Encoding        string `json:"encoding"`
	Data            string `json:"data"`
}
