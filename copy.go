package main

import (
	"bytes"
)

// copyNull is the COPY text spelling of SQL NULL.
const copyNull = `\N`

// copyEncoder turns shaped row values into PostgreSQL COPY text lines:
// tab-separated fields, newline-terminated rows, \N for NULL. Fields whose
// column was projected as hex (binary, spatial WKB) are delivered as bytea
// hex input: the field value PostgreSQL decodes must read \x…, so the
// stream carries the backslash doubled.
type copyEncoder struct {
	hexPrefix []bool
}

func newCopyEncoder(cols []Column) *copyEncoder {
	e := &copyEncoder{hexPrefix: make([]bool, len(cols))}
	for i, c := range cols {
		e.hexPrefix[i] = needsHexPrefix(c)
	}
	return e
}

// EncodeRow appends one encoded line (including the trailing newline) to buf.
func (e *copyEncoder) EncodeRow(buf *bytes.Buffer, values [][]byte) {
	for i, val := range values {
		if i > 0 {
			buf.WriteByte('\t')
		}
		switch {
		case val == nil:
			buf.WriteString(copyNull)
		case e.hexPrefix[i]:
			buf.WriteString(`\\x`)
			buf.Write(val)
		default:
			appendCopyField(buf, val)
		}
	}
	buf.WriteByte('\n')
}

// appendCopyField writes val with COPY text escaping: backslash, newline,
// carriage return and tab never appear bare inside a field.
func appendCopyField(buf *bytes.Buffer, val []byte) {
	for _, b := range val {
		switch b {
		case '\\':
			buf.WriteString(`\\`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			buf.WriteByte(b)
		}
	}
}

// decodeCopyField reverses appendCopyField. Only tests use it; it documents
// the round-trip contract of the escaping above.
func decodeCopyField(s string) []byte {
	var out []byte
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			out = append(out, s[i])
			continue
		}
		i++
		switch s[i] {
		case '\\':
			out = append(out, '\\')
		case 'n':
			out = append(out, '\n')
		case 'r':
			out = append(out, '\r')
		case 't':
			out = append(out, '\t')
		default:
			out = append(out, '\\', s[i])
		}
	}
	return out
}
