package pdfdoc

import (
	"strings"
	"unicode"
)

// contentText pulls the strings shown by text operators out of a decoded
// content stream. Glyphs are taken as PDFDocEncoding bytes; fonts with custom
// encodings come out garbled, which is why this is only a fallback.
func contentText(data []byte) string {
	var (
		sb      strings.Builder
		pending []string // string operands since the last operator
		inArray bool
	)
	newline := func() {
		s := sb.String()
		if s != "" && !strings.HasSuffix(s, "\n") {
			sb.WriteByte('\n')
		}
	}

	for i := 0; i < len(data); {
		c := data[i]
		switch {
		case c == '%':
			for i < len(data) && data[i] != '\n' && data[i] != '\r' {
				i++
			}
		case c == '(':
			s, n := readLiteral(data[i:])
			pending = append(pending, s)
			i += n
		case c == '<' && i+1 < len(data) && data[i+1] == '<':
			i += 2
		case c == '<':
			s, n := readHex(data[i:])
			pending = append(pending, s)
			i += n
		case c == '[':
			inArray = true
			i++
		case c == ']':
			inArray = false
			i++
		case isDelimOrSpace(c):
			i++
		default:
			start := i
			for i < len(data) && !isDelimOrSpace(data[i]) && !strings.ContainsRune("()<>[]%", rune(data[i])) {
				i++
			}
			tok := string(data[start:i])
			if inArray {
				// kerning inside TJ; a large gap stands for a space
				if strings.HasPrefix(tok, "-") && len(tok) > 3 {
					pending = append(pending, " ")
				}
				continue
			}
			switch tok {
			case "Tj", "TJ":
				sb.WriteString(strings.Join(pending, ""))
			case "'", `"`:
				newline()
				sb.WriteString(strings.Join(pending, ""))
			case "T*", "Td", "TD", "ET":
				newline()
			}
			if isOperator(tok) {
				pending = pending[:0]
			}
		}
	}
	return strings.TrimSpace(sb.String())
}

func isOperator(tok string) bool {
	r := rune(tok[0])
	return unicode.IsLetter(r) || tok == "'" || tok == `"` || tok == "T*"
}

func isDelimOrSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\f', 0, '/', '{', '}', ')', '>':
		return true
	}
	return false
}

// readLiteral decodes a (string) starting at b[0] and returns it with the
// number of bytes consumed.
func readLiteral(b []byte) (string, int) {
	var sb strings.Builder
	depth := 0
	i := 0
	for ; i < len(b); i++ {
		c := b[i]
		switch c {
		case '(':
			depth++
			if depth == 1 {
				continue
			}
		case ')':
			depth--
			if depth == 0 {
				return sb.String(), i + 1
			}
		case '\\':
			i++
			if i >= len(b) {
				return sb.String(), i
			}
			switch e := b[i]; e {
			case 'n':
				sb.WriteByte('\n')
			case 'r', 'b', 'f':
			case 't':
				sb.WriteByte('\t')
			case '\r', '\n':
			default:
				if e >= '0' && e <= '7' {
					v := 0
					k := 0
					for ; k < 3 && i < len(b) && b[i] >= '0' && b[i] <= '7'; k++ {
						v = v*8 + int(b[i]-'0')
						i++
					}
					i--
					writeGlyph(&sb, byte(v))
					continue
				}
				sb.WriteByte(e)
			}
			continue
		}
		writeGlyph(&sb, c)
	}
	return sb.String(), i
}

// readHex decodes a <hex> string starting at b[0].
func readHex(b []byte) (string, int) {
	var sb strings.Builder
	var hi int = -1
	i := 1
	for ; i < len(b) && b[i] != '>'; i++ {
		v := hexVal(b[i])
		if v < 0 {
			continue
		}
		if hi < 0 {
			hi = v
			continue
		}
		writeGlyph(&sb, byte(hi<<4|v))
		hi = -1
	}
	if hi >= 0 {
		writeGlyph(&sb, byte(hi<<4))
	}
	if i < len(b) {
		i++
	}
	return sb.String(), i
}

func hexVal(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	}
	return -1
}

func writeGlyph(sb *strings.Builder, c byte) {
	r := rune(c)
	if r == '\n' || r == '\t' || unicode.IsPrint(r) {
		sb.WriteRune(r)
	}
}
