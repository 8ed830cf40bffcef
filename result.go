package musicpd

import (
	"strings"

	"github.com/pior/musicpd/proto"
)

// Result is the decoded response of one command. Which field is populated
// depends on Kind; Pairs always holds the raw response.
type Result struct {
	Command string
	Kind    ResultKind
	Pairs   []proto.Pair

	Item     any
	List     []string
	Object   Record
	Objects  []Record
	Stickers map[string]string
	Binary   *Binary
}

// coercionFailure reports a value left as a raw string.
type coercionFailure func(key, value string, err error)

// decodeResult applies the result kind of spec to a raw response.
func decodeResult(name string, spec commandSpec, resp *proto.Response, onFailure coercionFailure) *Result {
	res := &Result{
		Command: name,
		Kind:    spec.kind,
		Pairs:   resp.Pairs,
	}

	switch spec.kind {
	case KindItem:
		if len(resp.Pairs) > 0 {
			p := resp.Pairs[0]
			res.Item = coerceField(p.Key, p.Value, onFailure)
		}

	case KindList, KindChanges:
		res.List = make([]string, 0, len(resp.Pairs))
		for _, p := range resp.Pairs {
			res.List = append(res.List, p.Value)
		}

	case KindObject:
		res.Object = newRecord(resp.Pairs, onFailure)

	case KindObjects:
		groups := groupPairs(resp.Pairs, spec.delimiters)
		res.Objects = make([]Record, 0, len(groups))
		for _, g := range groups {
			res.Objects = append(res.Objects, newRecord(g, onFailure))
		}

	case KindStickers:
		res.Stickers = make(map[string]string)
		for _, p := range resp.Pairs {
			if p.Key != "sticker" {
				continue
			}
			name, value, _ := strings.Cut(p.Value, "=")
			res.Stickers[name] = value
		}
		// "sticker find" returns one sticker per file
		if _, ok := resp.Get("file"); ok {
			for _, g := range groupPairs(resp.Pairs, songDelimiters) {
				res.Objects = append(res.Objects, newRecord(g, onFailure))
			}
		}
	}

	if spec.kind == KindBinary || resp.HasBinary() {
		res.Binary = newBinary(resp)
	}

	return res
}

// groupPairs splits pairs into records, starting a new record on each
// delimiter key. Without delimiters the first key of the response is used.
// Pairs before the first delimiter form their own record.
func groupPairs(pairs []proto.Pair, delimiters []string) [][]proto.Pair {
	if len(pairs) == 0 {
		return nil
	}
	if len(delimiters) == 0 {
		delimiters = []string{pairs[0].Key}
	}

	var groups [][]proto.Pair
	start := 0
	for i, p := range pairs {
		if i > start && isDelimiter(p.Key, delimiters) {
			groups = append(groups, pairs[start:i])
			start = i
		}
	}
	return append(groups, pairs[start:])
}

func isDelimiter(key string, delimiters []string) bool {
	for _, d := range delimiters {
		if key == d {
			return true
		}
	}
	return false
}
