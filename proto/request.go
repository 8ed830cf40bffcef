package proto

import (
	"math"
	"reflect"
	"strconv"
)

// ArgKind identifies the type of a command argument.
type ArgKind uint8

const (
	ArgString ArgKind = iota
	ArgInt
	ArgFloat
	ArgRange
)

func (k ArgKind) String() string {
	switch k {
	case ArgString:
		return "string"
	case ArgInt:
		return "int"
	case ArgFloat:
		return "float"
	case ArgRange:
		return "range"
	default:
		return "unknown"
	}
}

// Range is a window of positions rendered as START:END.
// End is exclusive. A negative bound is omitted on the wire, meaning the
// range is open on that side.
type Range struct {
	Start int
	End   int
}

// NewRange returns the closed range [start, end).
func NewRange(start, end int) Range { return Range{Start: start, End: end} }

// RangeFrom returns the range starting at start with no upper bound.
func RangeFrom(start int) Range { return Range{Start: start, End: -1} }

// RangeTo returns the range ending before end with no lower bound.
func RangeTo(end int) Range { return Range{Start: -1, End: end} }

// HasStart reports whether the lower bound is set.
func (r Range) HasStart() bool { return r.Start >= 0 }

// HasEnd reports whether the upper bound is set.
func (r Range) HasEnd() bool { return r.End >= 0 }

func (r Range) String() string {
	return string(r.appendTo(nil))
}

func (r Range) appendTo(b []byte) []byte {
	if r.HasStart() {
		b = strconv.AppendInt(b, int64(r.Start), 10)
	}
	b = append(b, ':')
	if r.HasEnd() {
		b = strconv.AppendInt(b, int64(r.End), 10)
	}
	return b
}

// Arg is a single typed command argument.
// The zero value is the empty string argument.
//
// Arg is comparable: two arguments are equal when they have the same kind
// and value.
type Arg struct {
	kind ArgKind
	s    string
	i    int64
	f    float64
	r    Range
}

// String returns a string argument.
func String(s string) Arg { return Arg{kind: ArgString, s: s} }

// Int returns an integer argument.
func Int(i int64) Arg { return Arg{kind: ArgInt, i: i} }

// Float returns a floating point argument.
func Float(f float64) Arg { return Arg{kind: ArgFloat, f: f} }

// RangeArg returns a range argument. Negative bounds are normalized to -1.
func RangeArg(r Range) Arg {
	if r.Start < 0 {
		r.Start = -1
	}
	if r.End < 0 {
		r.End = -1
	}
	return Arg{kind: ArgRange, r: r}
}

func (a Arg) Kind() ArgKind { return a.kind }

// Str returns the value of a string argument.
func (a Arg) Str() string { return a.s }

// IntValue returns the value of an integer argument.
func (a Arg) IntValue() int64 { return a.i }

// FloatValue returns the value of a float argument.
func (a Arg) FloatValue() float64 { return a.f }

// RangeValue returns the value of a range argument.
func (a Arg) RangeValue() Range { return a.r }

// ArgOf converts a Go value into an Arg.
//
// Supported: Arg, Range, strings, integers and floats, including named types
// whose underlying type is one of those. Anything else fails with
// EncodingError.
func ArgOf(v any) (Arg, error) {
	switch v := v.(type) {
	case Arg:
		return v, nil
	case string:
		return String(v), nil
	case int:
		return Int(int64(v)), nil
	case int8:
		return Int(int64(v)), nil
	case int16:
		return Int(int64(v)), nil
	case int32:
		return Int(int64(v)), nil
	case int64:
		return Int(v), nil
	case uint:
		return uintArg(uint64(v))
	case uint8:
		return Int(int64(v)), nil
	case uint16:
		return Int(int64(v)), nil
	case uint32:
		return Int(int64(v)), nil
	case uint64:
		return uintArg(v)
	case float32:
		return floatArg(float64(v))
	case float64:
		return floatArg(v)
	case Range:
		return RangeArg(v), nil
	default:
		return argOfKind(v)
	}
}

// argOfKind handles named types such as `type Subsystem string`.
func argOfKind(v any) (Arg, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return uintArg(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return floatArg(rv.Float())
	default:
		return Arg{}, &EncodingError{Message: "unsupported argument type", Value: v}
	}
}

func uintArg(v uint64) (Arg, error) {
	if v > math.MaxInt64 {
		return Arg{}, &EncodingError{Message: "integer argument overflows int64", Value: v}
	}
	return Int(int64(v)), nil
}

func floatArg(f float64) (Arg, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Arg{}, &EncodingError{Message: "float argument is not finite", Value: f}
	}
	return Float(f), nil
}

// Command is a command name plus its ordered arguments.
// It is immutable once built; the Args slice must not be modified.
type Command struct {
	Name string
	Args []Arg
}

// NewCommand builds a Command, converting each value with ArgOf.
func NewCommand(name string, args ...any) (Command, error) {
	if err := validateName(name); err != nil {
		return Command{}, err
	}

	cmd := Command{Name: name}
	if len(args) > 0 {
		cmd.Args = make([]Arg, len(args))
	}
	for i, v := range args {
		arg, err := ArgOf(v)
		if err != nil {
			return Command{}, err
		}
		cmd.Args[i] = arg
	}
	return cmd, nil
}

// MustCommand is like NewCommand but panics on error.
// Intended for commands built from constants.
func MustCommand(name string, args ...any) Command {
	cmd, err := NewCommand(name, args...)
	if err != nil {
		panic(err)
	}
	return cmd
}

// Equal reports whether both commands have the same name and arguments.
func (c Command) Equal(other Command) bool {
	if c.Name != other.Name || len(c.Args) != len(other.Args) {
		return false
	}
	for i := range c.Args {
		if c.Args[i] != other.Args[i] {
			return false
		}
	}
	return true
}

// String returns the wire line without its terminator.
func (c Command) String() string {
	b, err := AppendCommand(nil, c)
	if err != nil {
		return c.Name + " <" + err.Error() + ">"
	}
	return string(b)
}

// validateName checks that name is a bare protocol token.
func validateName(name string) error {
	if name == "" {
		return &EncodingError{Message: "empty command name"}
	}
	for i := 0; i < len(name); i++ {
		if !isNameByte(name[i]) {
			return &EncodingError{Message: "invalid command name " + strconv.Quote(name)}
		}
	}
	return nil
}

func isNameByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
