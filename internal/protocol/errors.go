package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Block ids outside the palette.
	ErrInvalidID = "E_INVALID_ID"

	// Agent loop.
	ErrNoTarget  = "E_NO_TARGET"
	ErrSelect    = "E_SELECT"
	ErrBlocked   = "E_BLOCKED"
	ErrExhausted = "E_EXHAUSTED"
	ErrTimeout   = "E_TIMEOUT"
	ErrInternal  = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrInvalidID:       {},
	ErrNoTarget:        {},
	ErrSelect:          {},
	ErrBlocked:         {},
	ErrExhausted:       {},
	ErrTimeout:         {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
