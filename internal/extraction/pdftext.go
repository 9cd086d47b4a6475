package extraction

import (
	"bytes"
	"compress/zlib"
	"io"
	"regexp"
	"strings"
)

const maxStreamSize = 8 << 20

var (
	streamRe    = regexp.MustCompile(`(?s)stream\r?\n(.*?)\r?\nendstream`)
	textBlockRe = regexp.MustCompile(`(?s)BT(.*?)ET`)
	textOpRe    = regexp.MustCompile(`(?s)(\[(?:[^\]\\]|\\.)*\]\s*TJ|\((?:[^)\\]|\\.)*\)\s*(?:Tj|'|")|T\*|Td|TD)`)
	literalRe   = regexp.MustCompile(`\((?:[^)\\]|\\.)*\)`)
)

// PDFText returns the readable text of simple PDFs: content streams are
// inflated when Flate-compressed and literal strings inside text objects are
// joined, one line per positioning operator. Documents whose text is not
// stored as literal strings yield "".
func PDFText(pdf []byte) string {
	var out strings.Builder
	for _, m := range streamRe.FindAllSubmatch(pdf, -1) {
		content := inflate(m[1])
		for _, block := range textBlockRe.FindAllSubmatch(content, -1) {
			writeTextBlock(&out, block[1])
			out.WriteByte('\n')
		}
	}
	return strings.TrimSpace(out.String())
}

func inflate(data []byte) []byte {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return data
	}
	defer r.Close()
	inflated, err := io.ReadAll(io.LimitReader(r, maxStreamSize))
	if err != nil && len(inflated) == 0 {
		return data
	}
	return inflated
}

func writeTextBlock(out *strings.Builder, block []byte) {
	for _, op := range textOpRe.FindAll(block, -1) {
		switch {
		case bytes.HasSuffix(op, []byte("T*")), bytes.HasSuffix(op, []byte("Td")), bytes.HasSuffix(op, []byte("TD")):
			out.WriteByte('\n')
		case bytes.HasPrefix(op, []byte("[")):
			for _, lit := range literalRe.FindAll(op, -1) {
				out.WriteString(unescapeLiteral(lit[1 : len(lit)-1]))
			}
		default:
			lit := literalRe.Find(op)
			if lit != nil {
				if op[len(op)-1] == '\'' || op[len(op)-1] == '"' {
					out.WriteByte('\n')
				}
				out.WriteString(unescapeLiteral(lit[1 : len(lit)-1]))
			}
		}
	}
}

func unescapeLiteral(b []byte) string {
	var out strings.Builder
	for i := 0; i < len(b); i++ {
		c := b[i]
		if c != '\\' || i+1 >= len(b) {
			out.WriteRune(latin1(c))
			continue
		}
		i++
		switch b[i] {
		case 'n':
			out.WriteByte('\n')
		case 'r':
			out.WriteByte('\r')
		case 't':
			out.WriteByte('\t')
		case 'b', 'f':
		case '(', ')', '\\':
			out.WriteByte(b[i])
		case '\r', '\n':
			// line continuation
		default:
			if b[i] >= '0' && b[i] <= '7' {
				v := 0
				j := 0
				for ; j < 3 && i+j < len(b) && b[i+j] >= '0' && b[i+j] <= '7'; j++ {
					v = v*8 + int(b[i+j]-'0')
				}
				i += j - 1
				out.WriteRune(latin1(byte(v)))
				continue
			}
			out.WriteByte(b[i])
		}
	}
	return out.String()
}

// latin1 maps PDFDocEncoding bytes to runes; the ASCII and Latin-1 ranges agree.
func latin1(c byte) rune {
	return rune(c)
}
