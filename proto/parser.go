package proto

import (
	"strconv"
	"strings"
)

// ParseCommand decodes a request line produced by WriteCommand back into a
// Command. The trailing terminator is optional.
//
// Quoted tokens always decode as strings. Bare tokens decode as integers,
// floats (when they contain a decimal point) or ranges (START:END) when they
// have that shape, and as strings otherwise. For every command built from
// typed arguments, ParseCommand(AppendCommand(cmd)) equals cmd.
//
// Fake daemons in tests use it to inspect what the client sent.
func ParseCommand(line string) (Command, error) {
	line = strings.TrimSuffix(line, "\n")

	pos := skipSpaces(line, 0)
	end := pos
	for end < len(line) && line[end] != ' ' {
		end++
	}
	name := line[pos:end]
	if err := validateName(name); err != nil {
		return Command{}, err
	}

	cmd := Command{Name: name}
	pos = end
	for {
		pos = skipSpaces(line, pos)
		if pos >= len(line) {
			return cmd, nil
		}

		var arg Arg
		if line[pos] == '"' {
			s, next, err := parseQuoted(line, pos)
			if err != nil {
				return Command{}, err
			}
			arg = String(s)
			pos = next
		} else {
			end := pos
			for end < len(line) && line[end] != ' ' {
				end++
			}
			arg = classifyBare(line[pos:end])
			pos = end
		}
		cmd.Args = append(cmd.Args, arg)
	}
}

func skipSpaces(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return i
}

// parseQuoted reads a quoted token starting at s[start] == '"'.
// It returns the unescaped value and the index after the closing quote.
func parseQuoted(s string, start int) (string, int, error) {
	var sb strings.Builder
	for i := start + 1; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\':
			i++
			if i >= len(s) {
				return "", 0, &EncodingError{Message: "dangling escape in quoted argument"}
			}
			sb.WriteByte(s[i])
		case '"':
			if i+1 < len(s) && s[i+1] != ' ' {
				return "", 0, &EncodingError{Message: "quoted argument not followed by a separator"}
			}
			return sb.String(), i + 1, nil
		default:
			sb.WriteByte(c)
		}
	}
	return "", 0, &EncodingError{Message: "unterminated quoted argument"}
}

// classifyBare decides the type of an unquoted token.
func classifyBare(tok string) Arg {
	if !numericShape(tok) {
		return String(tok)
	}

	if i, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return Int(i)
	}

	if before, after, ok := strings.Cut(tok, ":"); ok {
		if strings.Contains(after, ":") {
			return String(tok)
		}
		r := Range{Start: -1, End: -1}
		if before != "" {
			n, err := strconv.Atoi(before)
			if err != nil || n < 0 {
				return String(tok)
			}
			r.Start = n
		}
		if after != "" {
			n, err := strconv.Atoi(after)
			if err != nil || n < 0 {
				return String(tok)
			}
			r.End = n
		}
		return RangeArg(r)
	}

	if strings.Contains(tok, ".") {
		if f, err := strconv.ParseFloat(tok, 64); err == nil {
			return Float(f)
		}
	}
	return String(tok)
}

// numericShape reports whether tok only holds digits, sign, '.' and ':'.
func numericShape(tok string) bool {
	if tok == "" {
		return false
	}
	for i := 0; i < len(tok); i++ {
		c := tok[i]
		if (c < '0' || c > '9') && c != '-' && c != '+' && c != '.' && c != ':' {
			return false
		}
	}
	return true
}
