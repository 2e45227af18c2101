package main

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
)

// encodingValidator checks row fields against the target encoding and
// attempts a conversion before giving up on a row.
type encodingValidator struct {
	name    string
	utf8    bool
	encoder *encoding.Encoder // target encoder when the target is not UTF-8
}

// newEncodingValidator resolves the configured encoding name through the
// IANA registry.
func newEncodingValidator(name string) (*encodingValidator, error) {
	v := &encodingValidator{name: name}

	switch strings.ToUpper(name) {
	case "UTF-8", "UTF8":
		v.utf8 = true
		return v, nil
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, newError(errConfig, "", fmt.Errorf("unknown target encoding %q", name))
	}
	v.encoder = enc.NewEncoder()
	return v, nil
}

// ValidateField returns the field as valid bytes in the target encoding.
// ok is false when the value cannot be represented even after conversion;
// the caller drops the whole row in that case.
func (v *encodingValidator) ValidateField(b []byte) ([]byte, bool) {
	if v.utf8 {
		if utf8.Valid(b) {
			return b, true
		}
		// MySQL's pre-utf8 payloads are near-universally latin1.
		converted, err := charmap.Windows1252.NewDecoder().Bytes(b)
		if err != nil || !utf8.Valid(converted) {
			return nil, false
		}
		return converted, true
	}

	converted, err := v.encoder.Bytes(b)
	if err != nil {
		return nil, false
	}
	return converted, true
}
