package proto

import (
	"fmt"
	"strconv"
	"strings"
)

// Pair is one "key: value" response line.
type Pair struct {
	Key   string
	Value string
}

// Response represents a parsed daemon response.
// This is a low-level container without command specific interpretation:
// values are raw strings and repeated keys are kept in wire order.
type Response struct {
	// Pairs holds every key/value line in the order received.
	// Duplicate keys (one "file" per song, for example) are distinct entries.
	Pairs []Pair

	// Binary is the raw segment announced by a "binary: <n>" line.
	// nil when the response carried no binary segment.
	Binary []byte
}

// Len returns the number of pairs.
func (r *Response) Len() int {
	return len(r.Pairs)
}

// Get returns the value of the first pair with the given key.
func (r *Response) Get(key string) (string, bool) {
	for _, p := range r.Pairs {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// Values returns the values of every pair with the given key, in order.
func (r *Response) Values(key string) []string {
	var values []string
	for _, p := range r.Pairs {
		if p.Key == key {
			values = append(values, p.Value)
		}
	}
	return values
}

// HasBinary reports whether a binary segment was received.
func (r *Response) HasBinary() bool {
	return r.Binary != nil
}

// Version is the protocol version announced in the greeting.
type Version struct {
	Major int
	Minor int
	Patch int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare returns -1, 0 or +1 depending on whether v is lower, equal or
// greater than other.
func (v Version) Compare(other Version) int {
	switch {
	case v.Major != other.Major:
		return cmpInt(v.Major, other.Major)
	case v.Minor != other.Minor:
		return cmpInt(v.Minor, other.Minor)
	default:
		return cmpInt(v.Patch, other.Patch)
	}
}

// AtLeast reports whether v is major.minor.patch or newer.
func (v Version) AtLeast(major, minor, patch int) bool {
	return v.Compare(Version{Major: major, Minor: minor, Patch: patch}) >= 0
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// ParseVersion parses "major.minor.patch". A missing patch component is 0.
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) < 2 || len(parts) > 3 {
		return Version{}, &ProtocolError{Message: "invalid protocol version", Line: s}
	}

	var nums [3]int
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return Version{}, &ProtocolError{Message: "invalid protocol version", Line: s, Err: err}
		}
		nums[i] = n
	}
	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}
