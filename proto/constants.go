package proto

import "strconv"

// AckCode is the numeric error code carried by an ACK line.
type AckCode int

// Error codes reported by the daemon in ACK lines.
const (
	// AckGeneric is used for ACK lines that do not follow the bracketed layout.
	AckGeneric AckCode = 0

	AckNotList       AckCode = 1
	AckArg           AckCode = 2
	AckPassword      AckCode = 3
	AckPermission    AckCode = 4
	AckUnknown       AckCode = 5
	AckNoExist       AckCode = 50
	AckPlaylistMax   AckCode = 51
	AckSystem        AckCode = 52
	AckPlaylistLoad  AckCode = 53
	AckUpdateAlready AckCode = 54
	AckPlayerSync    AckCode = 55
	AckExist         AckCode = 56
)

var ackCodeNames = map[AckCode]string{
	AckGeneric:       "generic",
	AckNotList:       "not_list",
	AckArg:           "arg",
	AckPassword:      "password",
	AckPermission:    "permission",
	AckUnknown:       "unknown",
	AckNoExist:       "no_exist",
	AckPlaylistMax:   "playlist_max",
	AckSystem:        "system",
	AckPlaylistLoad:  "playlist_load",
	AckUpdateAlready: "update_already",
	AckPlayerSync:    "player_sync",
	AckExist:         "exist",
}

func (c AckCode) String() string {
	if name, ok := ackCodeNames[c]; ok {
		return name
	}
	return "ack_" + strconv.Itoa(int(c))
}

// Protocol delimiters and terminal lines
const (
	// LineTerminator ends every request and response line.
	LineTerminator = '\n'

	// ResponseOK terminates a successful response.
	ResponseOK = "OK"

	// ListOK separates sub-command results inside command_list_ok_begin.
	ListOK = "list_OK"

	// AckPrefix starts an error response line.
	AckPrefix = "ACK "

	// GreetingPrefix starts the first line sent by the daemon.
	GreetingPrefix = "OK MPD "

	// PairSeparator separates key and value in response lines.
	PairSeparator = ": "

	// BinaryKey announces a raw byte segment of the given length.
	BinaryKey = "binary"
)

// Commands the protocol engine itself issues or intercepts.
const (
	CmdCommandListBegin   = "command_list_begin"
	CmdCommandListOKBegin = "command_list_ok_begin"
	CmdCommandListEnd     = "command_list_end"
	CmdIdle               = "idle"
	CmdNoIdle             = "noidle"
	CmdPassword           = "password"
	CmdPing               = "ping"
	CmdClose              = "close"
	CmdBinaryLimit        = "binarylimit"
)

// Subsystem names reported by idle.
const (
	SubsystemDatabase       = "database"
	SubsystemUpdate         = "update"
	SubsystemStoredPlaylist = "stored_playlist"
	SubsystemPlaylist       = "playlist"
	SubsystemPlayer         = "player"
	SubsystemMixer          = "mixer"
	SubsystemOutput         = "output"
	SubsystemOptions        = "options"
	SubsystemPartition      = "partition"
	SubsystemSticker        = "sticker"
	SubsystemSubscription   = "subscription"
	SubsystemMessage        = "message"
	SubsystemNeighbor       = "neighbor"
	SubsystemMount          = "mount"
)

// Limits
const (
	// ReadBufferSize is the default bufio buffer used for response lines.
	// Longer lines are still accepted (see ReadLine).
	ReadBufferSize = 64 * 1024

	// MaxBinaryLength caps the length a binary key may announce.
	MaxBinaryLength = 64 * 1024 * 1024
)
