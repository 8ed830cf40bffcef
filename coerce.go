package musicpd

import (
	"fmt"
	"strconv"

	"github.com/pior/musicpd/proto"
)

// PlayState is the player state reported by status.
type PlayState string

const (
	PlayStatePlay  PlayState = "play"
	PlayStatePause PlayState = "pause"
	PlayStateStop  PlayState = "stop"
)

// Toggle is the value of the single and consume options.
type Toggle string

const (
	ToggleOff     Toggle = "0"
	ToggleOn      Toggle = "1"
	ToggleOneshot Toggle = "oneshot"
)

func (t Toggle) String() string {
	switch t {
	case ToggleOff:
		return "off"
	case ToggleOn:
		return "on"
	default:
		return string(t)
	}
}

type fieldKind uint8

const (
	fieldString fieldKind = iota
	fieldInt
	fieldFloat
	fieldBool
	fieldPlayState
	fieldToggle
)

// fieldKinds lists the keys with a typed value. Keys not listed, including
// song tags like Track or Date, stay strings.
var fieldKinds = map[string]fieldKind{
	"volume":         fieldInt,
	"playlist":       fieldInt,
	"playlistlength": fieldInt,
	"song":           fieldInt,
	"songid":         fieldInt,
	"nextsong":       fieldInt,
	"nextsongid":     fieldInt,
	"bitrate":        fieldInt,
	"xfade":          fieldInt,
	"updating_db":    fieldInt,
	"Pos":            fieldInt,
	"Id":             fieldInt,
	"Prio":           fieldInt,
	"Time":           fieldInt,
	"outputid":       fieldInt,
	"artists":        fieldInt,
	"albums":         fieldInt,
	"songs":          fieldInt,
	"uptime":         fieldInt,
	"playtime":       fieldInt,
	"db_playtime":    fieldInt,
	"db_update":      fieldInt,
	"cpos":           fieldInt,

	"elapsed":      fieldFloat,
	"duration":     fieldFloat,
	"mixrampdb":    fieldFloat,
	"mixrampdelay": fieldFloat,

	"repeat":        fieldBool,
	"random":        fieldBool,
	"outputenabled": fieldBool,

	"state":   fieldPlayState,
	"single":  fieldToggle,
	"consume": fieldToggle,
}

// coerceValue converts the raw value of key to its typed form.
func coerceValue(key, value string) (any, error) {
	switch fieldKinds[key] {
	case fieldInt:
		return strconv.ParseInt(value, 10, 64)
	case fieldFloat:
		return strconv.ParseFloat(value, 64)
	case fieldBool:
		switch value {
		case "0":
			return false, nil
		case "1":
			return true, nil
		}
		return nil, fmt.Errorf("invalid boolean %q", value)
	case fieldPlayState:
		switch s := PlayState(value); s {
		case PlayStatePlay, PlayStatePause, PlayStateStop:
			return s, nil
		}
		return nil, fmt.Errorf("invalid play state %q", value)
	case fieldToggle:
		switch t := Toggle(value); t {
		case ToggleOff, ToggleOn, ToggleOneshot:
			return t, nil
		}
		return nil, fmt.Errorf("invalid toggle %q", value)
	default:
		return value, nil
	}
}

// coerceField is coerceValue falling back to the raw string.
func coerceField(key, value string, onFailure coercionFailure) any {
	v, err := coerceValue(key, value)
	if err != nil {
		if onFailure != nil {
			onFailure(key, value, err)
		}
		return value
	}
	return v
}

// Record is one object of a response: status fields, a song, an output...
// Values are typed per key (int64, float64, bool, PlayState, Toggle or
// string). A key repeated in the record holds a []string of raw values.
type Record map[string]any

func newRecord(pairs []proto.Pair, onFailure coercionFailure) Record {
	raw := make(map[string][]string, len(pairs))
	order := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if _, seen := raw[p.Key]; !seen {
			order = append(order, p.Key)
		}
		raw[p.Key] = append(raw[p.Key], p.Value)
	}

	r := make(Record, len(order))
	for _, key := range order {
		values := raw[key]
		if len(values) > 1 {
			r[key] = values
			continue
		}
		r[key] = coerceField(key, values[0], onFailure)
	}
	return r
}

// String returns the value of key formatted as a string, the first one for
// repeated keys, or "" when missing.
func (r Record) String(key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case []string:
		return v[0]
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		if v {
			return "1"
		}
		return "0"
	case PlayState:
		return string(v)
	case Toggle:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

// Int returns the integer value of key.
func (r Record) Int(key string) (int64, bool) {
	switch v := r[key].(type) {
	case int64:
		return v, true
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil
	}
	return 0, false
}

// Float returns the float value of key. Integer values are converted.
func (r Record) Float(key string) (float64, bool) {
	switch v := r[key].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	}
	return 0, false
}

// Bool returns the boolean value of key.
func (r Record) Bool(key string) (bool, bool) {
	switch v := r[key].(type) {
	case bool:
		return v, true
	case string:
		switch v {
		case "0":
			return false, true
		case "1":
			return true, true
		}
	}
	return false, false
}

// Strings returns all values of key, for tags that may be repeated
// (Artist, Genre...).
func (r Record) Strings(key string) []string {
	switch v := r[key].(type) {
	case nil:
		return nil
	case []string:
		return v
	default:
		return []string{r.String(key)}
	}
}

// PlayState returns the state field of a status record.
func (r Record) PlayState() PlayState {
	s, _ := r["state"].(PlayState)
	return s
}
