package trackfile

import (
	"errors"
	"strings"
	"unicode"
)

var errUnterminatedQuote = errors.New("unterminated quoted string")

// stripComment removes a '#' or ';' comment that starts outside quotes.
func stripComment(line string) string {
	inQuote := false
	for i := 0; i < len(line); i++ {
		switch c := line[i]; {
		case inQuote && c == '\\':
			i++
		case c == '"':
			inQuote = !inQuote
		case !inQuote && (c == '#' || c == ';'):
			return line[:i]
		}
	}
	return line
}

// header parses a "[...]" line. ok is false when the line is not a header;
// err is set for a header that is opened but not closed.
func header(line string) (name string, ok bool, err error) {
	if !strings.HasPrefix(line, "[") {
		return "", false, nil
	}
	if !strings.HasSuffix(line, "]") {
		return "", true, errors.New("section header is missing ']'")
	}
	return strings.TrimSpace(line[1 : len(line)-1]), true, nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || r == '-' || r == '.' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}

// splitProperty splits a "key=value" or "key: value" line. The value is the
// rest of the line, unquoted if it is a single quoted string.
func splitProperty(line string) (key, value string, err error) {
	i := strings.IndexAny(line, "=:")
	if i < 0 {
		return "", "", errors.New("expected key=value")
	}
	key = strings.TrimSpace(line[:i])
	if !isIdent(key) {
		return "", "", errors.New("expected key=value")
	}
	value = strings.TrimSpace(line[i+1:])
	if strings.HasPrefix(value, "\"") {
		s, n, err := readQuoted(value)
		if err != nil {
			return "", "", err
		}
		if strings.TrimSpace(value[n:]) != "" {
			return "", "", errors.New("unexpected text after quoted value")
		}
		value = s
	}
	return strings.ToLower(key), value, nil
}

// readQuoted reads a quoted string at the start of s and returns its
// unescaped contents and the number of bytes consumed.
func readQuoted(s string) (string, int, error) {
	var b strings.Builder
	for i := 1; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			if i+1 < len(s) {
				i++
				b.WriteByte(s[i])
			}
		case '"':
			return b.String(), i + 1, nil
		default:
			b.WriteByte(c)
		}
	}
	return "", 0, errUnterminatedQuote
}

// token is one whitespace-delimited item of a record line.
type token struct {
	key   string
	value string
	named bool
}

// tokenize splits a record line on whitespace outside quotes. A token whose
// unquoted prefix is an identifier followed by '=' or ':' is a named pair.
func tokenize(line string) ([]token, error) {
	var toks []token
	i := 0
	for {
		for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
			i++
		}
		if i >= len(line) {
			return toks, nil
		}

		var b strings.Builder
		sep, quoted := -1, false
		for i < len(line) && line[i] != ' ' && line[i] != '\t' {
			c := line[i]
			switch {
			case c == '"':
				s, n, err := readQuoted(line[i:])
				if err != nil {
					return nil, err
				}
				b.WriteString(s)
				quoted = true
				i += n
				continue
			case (c == '=' || c == ':') && sep < 0 && !quoted && isIdent(b.String()):
				sep = b.Len()
			default:
				b.WriteByte(c)
			}
			i++
		}

		s := b.String()
		if sep >= 0 {
			toks = append(toks, token{key: strings.ToLower(s[:sep]), value: s[sep:], named: true})
		} else {
			toks = append(toks, token{value: s})
		}
	}
}

// fields gives access to a record line's tokens by name, falling back to
// the token at a fixed position when the name is absent.
type fields struct {
	toks  []token
	named map[string]string
	order []string
	used  map[string]bool
}

func newFields(toks []token) *fields {
	f := &fields{toks: toks, named: make(map[string]string), used: make(map[string]bool)}
	for _, t := range toks {
		if !t.named {
			continue
		}
		if _, dup := f.named[t.key]; !dup {
			f.order = append(f.order, t.key)
		}
		f.named[t.key] = t.value
	}
	return f
}

// get returns the first named value among keys, else the positional token
// at index pos. A negative pos disables the fallback.
func (f *fields) get(pos int, keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := f.named[k]; ok {
			f.used[k] = true
			return v, true
		}
	}
	if pos >= 0 && pos < len(f.toks) && !f.toks[pos].named {
		return f.toks[pos].value, true
	}
	return "", false
}

// positional returns every unnamed token in order.
func (f *fields) positional() []string {
	var out []string
	for _, t := range f.toks {
		if !t.named {
			out = append(out, t.value)
		}
	}
	return out
}

// extra returns the named keys not consumed by get, in line order.
func (f *fields) extra() []string {
	var out []string
	for _, k := range f.order {
		if !f.used[k] {
			out = append(out, k)
		}
	}
	return out
}

// needsQuote reports whether a value must be quoted to survive tokenizing.
func needsQuote(s string) bool {
	return s == "" || strings.ContainsAny(s, " \t#;\"\\=:")
}

func quote(s string) string {
	if !needsQuote(s) {
		return s
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}
