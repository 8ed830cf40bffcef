package musicpd

import (
	"strconv"

	"github.com/pior/musicpd/proto"
)

// ResultKind tells how a command's response is interpreted.
type ResultKind uint8

const (
	// KindPairs leaves the response as raw pairs (commands missing from the table).
	KindPairs ResultKind = iota
	// KindNothing expects a bare OK.
	KindNothing
	// KindItem is a single value, Result.Item.
	KindItem
	// KindList is the values of all pairs, Result.List.
	KindList
	// KindObject is one record, Result.Object.
	KindObject
	// KindObjects is a sequence of records, Result.Objects.
	KindObjects
	// KindChanges is the subsystems reported by idle, Result.List.
	KindChanges
	// KindStickers is "name=value" sticker pairs, Result.Stickers.
	KindStickers
	// KindBinary is a binary chunk and its metadata, Result.Binary.
	KindBinary
)

func (k ResultKind) String() string {
	switch k {
	case KindPairs:
		return "pairs"
	case KindNothing:
		return "nothing"
	case KindItem:
		return "item"
	case KindList:
		return "list"
	case KindObject:
		return "object"
	case KindObjects:
		return "objects"
	case KindChanges:
		return "changes"
	case KindStickers:
		return "stickers"
	case KindBinary:
		return "binary"
	default:
		return "unknown"
	}
}

// variadic marks a command without upper bound on its arguments.
const variadic = -1

// commandSpec is one entry of the dispatch table: the argument shape of a
// command and how its response is coerced.
type commandSpec struct {
	minArgs int
	maxArgs int
	kind    ResultKind

	// delimiters are the keys that start a new record for KindObjects.
	// Empty means the first key of the response is the delimiter.
	delimiters []string
}

var (
	songDelimiters     = []string{"file"}
	databaseDelimiters = []string{"file", "directory", "playlist"}
)

func nothing(minArgs, maxArgs int) commandSpec {
	return commandSpec{minArgs: minArgs, maxArgs: maxArgs, kind: KindNothing}
}

func item(minArgs, maxArgs int) commandSpec {
	return commandSpec{minArgs: minArgs, maxArgs: maxArgs, kind: KindItem}
}

func list(minArgs, maxArgs int) commandSpec {
	return commandSpec{minArgs: minArgs, maxArgs: maxArgs, kind: KindList}
}

func object(minArgs, maxArgs int) commandSpec {
	return commandSpec{minArgs: minArgs, maxArgs: maxArgs, kind: KindObject}
}

func objects(minArgs, maxArgs int, delimiters ...string) commandSpec {
	return commandSpec{minArgs: minArgs, maxArgs: maxArgs, kind: KindObjects, delimiters: delimiters}
}

func songs(minArgs, maxArgs int) commandSpec {
	return objects(minArgs, maxArgs, songDelimiters...)
}

func binary(minArgs, maxArgs int) commandSpec {
	return commandSpec{minArgs: minArgs, maxArgs: maxArgs, kind: KindBinary}
}

// commandTable maps command names to their argument shape and result
// coercion. Commands missing from the table are sent as is and return
// KindPairs.
var commandTable = map[string]commandSpec{
	// Status
	"clearerror":  nothing(0, 0),
	"currentsong": object(0, 0),
	"idle":        {minArgs: 0, maxArgs: variadic, kind: KindChanges},
	"noidle":      {minArgs: 0, maxArgs: 0, kind: KindChanges},
	"status":      object(0, 0),
	"stats":       object(0, 0),

	// Playback options
	"consume":            nothing(1, 1),
	"crossfade":          nothing(1, 1),
	"mixrampdb":          nothing(1, 1),
	"mixrampdelay":       nothing(1, 1),
	"random":             nothing(1, 1),
	"repeat":             nothing(1, 1),
	"setvol":             nothing(1, 1),
	"getvol":             item(0, 0),
	"single":             nothing(1, 1),
	"replay_gain_mode":   nothing(1, 1),
	"replay_gain_status": object(0, 0),
	"volume":             nothing(1, 1),

	// Controlling playback
	"next":     nothing(0, 0),
	"pause":    nothing(0, 1),
	"play":     nothing(0, 1),
	"playid":   nothing(0, 1),
	"previous": nothing(0, 0),
	"seek":     nothing(2, 2),
	"seekid":   nothing(2, 2),
	"seekcur":  nothing(1, 1),
	"stop":     nothing(0, 0),

	// The queue
	"add":            nothing(1, 2),
	"addid":          item(1, 2),
	"clear":          nothing(0, 0),
	"delete":         nothing(1, 1),
	"deleteid":       nothing(1, 1),
	"move":           nothing(2, 2),
	"moveid":         nothing(2, 2),
	"playlist":       list(0, 0),
	"playlistfind":   songs(1, variadic),
	"playlistid":     songs(0, 1),
	"playlistinfo":   songs(0, 1),
	"playlistsearch": songs(1, variadic),
	"plchanges":      songs(1, 2),
	"plchangesposid": objects(1, 2, "cpos"),
	"prio":           nothing(2, variadic),
	"prioid":         nothing(2, variadic),
	"rangeid":        nothing(2, 2),
	"shuffle":        nothing(0, 1),
	"swap":           nothing(2, 2),
	"swapid":         nothing(2, 2),
	"addtagid":       nothing(3, 3),
	"cleartagid":     nothing(1, 2),

	// Stored playlists
	"listplaylist":     list(1, 2),
	"listplaylistinfo": songs(1, 2),
	"listplaylists":    objects(0, 0, "playlist"),
	"load":             nothing(1, 3),
	"playlistadd":      nothing(2, 3),
	"playlistclear":    nothing(1, 1),
	"playlistdelete":   nothing(2, 2),
	"playlistmove":     nothing(3, 3),
	"rename":           nothing(2, 2),
	"rm":               nothing(1, 1),
	"save":             nothing(1, 2),

	// The music database
	"albumart":       binary(2, 2),
	"count":          objects(1, variadic),
	"getfingerprint": object(1, 1),
	"find":           songs(1, variadic),
	"findadd":        nothing(1, variadic),
	"list":           objects(1, variadic),
	"listall":        objects(0, 1, databaseDelimiters...),
	"listallinfo":    objects(0, 1, databaseDelimiters...),
	"listfiles":      objects(0, 1, "file", "directory"),
	"lsinfo":         objects(0, 1, databaseDelimiters...),
	"readcomments":   object(1, 1),
	"readpicture":    binary(2, 2),
	"search":         songs(1, variadic),
	"searchadd":      nothing(1, variadic),
	"searchaddpl":    nothing(2, variadic),
	"searchcount":    objects(1, variadic),
	"update":         item(0, 1),
	"rescan":         item(0, 1),

	// Mounts and neighbors
	"mount":         nothing(2, 2),
	"unmount":       nothing(1, 1),
	"listmounts":    objects(0, 0, "mount"),
	"listneighbors": objects(0, 0, "neighbor"),

	// Stickers
	"sticker": {minArgs: 3, maxArgs: variadic, kind: KindStickers},

	// Connection settings
	"close":       nothing(0, 0),
	"kill":        nothing(0, 0),
	"password":    nothing(1, 1),
	"ping":        nothing(0, 0),
	"binarylimit": nothing(1, 1),
	"tagtypes":    list(0, variadic),
	"protocol":    list(0, variadic),

	// Partition commands
	"partition":      nothing(1, 1),
	"listpartitions": objects(0, 0, "partition"),
	"newpartition":   nothing(1, 1),
	"delpartition":   nothing(1, 1),
	"moveoutput":     nothing(1, 1),

	// Audio output devices
	"disableoutput": nothing(1, 1),
	"enableoutput":  nothing(1, 1),
	"toggleoutput":  nothing(1, 1),
	"outputs":       objects(0, 0, "outputid"),
	"outputset":     nothing(3, 3),

	// Reflection
	"config":      object(0, 0),
	"commands":    list(0, 0),
	"notcommands": list(0, 0),
	"urlhandlers": list(0, 0),
	"decoders":    objects(0, 0, "plugin"),

	// Client to client
	"subscribe":    nothing(1, 1),
	"unsubscribe":  nothing(1, 1),
	"channels":     list(0, 0),
	"readmessages": objects(0, 0, "channel"),
	"sendmessage":  nothing(2, 2),
}

// lookupCommand returns the table entry for name, or a permissive entry
// returning raw pairs.
func lookupCommand(name string) (commandSpec, bool) {
	spec, ok := commandTable[name]
	if !ok {
		return commandSpec{minArgs: 0, maxArgs: variadic, kind: KindPairs}, false
	}
	return spec, true
}

// checkArgs validates the argument count of cmd against the spec.
func (s commandSpec) checkArgs(cmd proto.Command) error {
	n := len(cmd.Args)
	if n < s.minArgs || (s.maxArgs != variadic && n > s.maxArgs) {
		return &proto.EncodingError{Message: cmd.Name + ": wrong number of arguments (" + strconv.Itoa(n) + ")"}
	}
	return nil
}

// IsKnownCommand reports whether name is in the dispatch table.
func IsKnownCommand(name string) bool {
	_, ok := commandTable[name]
	return ok
}
