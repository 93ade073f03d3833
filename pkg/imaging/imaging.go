package imaging

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
)

var allowedTypes = map[string]struct{}{
	"jpg": {}, "jpeg": {}, "png": {}, "gif": {}, "webp": {},
}

var ErrEmptyPayload = errors.New("image payload is empty")

// Payload is the canonical transport form of an attached image: raw bytes
// plus the declared MIME type. It round-trips losslessly through a
// self-describing data URI.
type Payload struct {
	MIME string
	Data []byte
}

// FromBytes sniffs the MIME type of raw upload bytes and rejects anything
// outside the image allow-list.
func FromBytes(raw []byte) (*Payload, error) {
	if len(raw) == 0 {
		return nil, ErrEmptyPayload
	}

	kind, err := filetype.Match(raw)
	if err != nil || kind == types.Unknown {
		return nil, fmt.Errorf("unsupported file type: %w", err)
	}
	if _, ok := allowedTypes[kind.Extension]; !ok {
		return nil, fmt.Errorf("file type %s is not allowed", kind.Extension)
	}

	return &Payload{MIME: kind.MIME.Value, Data: raw}, nil
}

// DataURI encodes the payload as data:<mime>;base64,<data>.
func (p *Payload) DataURI() string {
	return fmt.Sprintf("data:%s;base64,%s", p.MIME, base64.StdEncoding.EncodeToString(p.Data))
}

// ParseDataURI is the inverse of DataURI.
func ParseDataURI(uri string) (*Payload, error) {
	if uri == "" {
		return nil, ErrEmptyPayload
	}

	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, errors.New("not a data URI")
	}

	mime, encoded, ok := strings.Cut(rest, ";base64,")
	if !ok || mime == "" {
		return nil, errors.New("data URI is missing a base64 payload")
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 payload: %w", err)
	}

	return &Payload{MIME: mime, Data: data}, nil
}

// MarshalJSON renders the payload as its data URI string so a Post or
// Draft serializes to a single self-describing field.
func (p *Payload) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", p.DataURI())), nil
}

func (p *Payload) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" || s == "" {
		return nil
	}
	parsed, err := ParseDataURI(s)
	if err != nil {
		return err
	}
	*p = *parsed
	return nil
}
