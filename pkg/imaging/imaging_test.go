package imaging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

// Minimal valid magic bytes, enough for sniffing.
var (
	pngBytes  = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}
	jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0, 0, 0}
	gifBytes  = []byte("GIF89a\x00\x00\x00\x00")
)

func TestFromBytesSniffsType(t *testing.T) {
	cases := []struct {
		name string
		raw  []byte
		mime string
	}{
		{"png", pngBytes, "image/png"},
		{"jpeg", jpegBytes, "image/jpeg"},
		{"gif", gifBytes, "image/gif"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := FromBytes(tc.raw)
			if err != nil {
				t.Fatalf("FromBytes: %v", err)
			}
			if p.MIME != tc.mime {
				t.Errorf("MIME = %q, want %q", p.MIME, tc.mime)
			}
			if !bytes.Equal(p.Data, tc.raw) {
				t.Error("payload bytes were altered")
			}
		})
	}
}

func TestFromBytesRejections(t *testing.T) {
	if _, err := FromBytes(nil); !errors.Is(err, ErrEmptyPayload) {
		t.Errorf("empty input: err = %v, want ErrEmptyPayload", err)
	}

	// a PDF header sniffs fine but is not an image
	if _, err := FromBytes([]byte("%PDF-1.4\n\x00\x00\x00\x00")); err == nil {
		t.Error("non-image bytes should be rejected")
	}

	if _, err := FromBytes([]byte("just some text, no magic")); err == nil {
		t.Error("unrecognizable bytes should be rejected")
	}
}

func TestDataURIRoundTrip(t *testing.T) {
	original := &Payload{MIME: "image/png", Data: pngBytes}

	uri := original.DataURI()
	if !strings.HasPrefix(uri, "data:image/png;base64,") {
		t.Fatalf("uri = %q", uri)
	}

	parsed, err := ParseDataURI(uri)
	if err != nil {
		t.Fatalf("ParseDataURI: %v", err)
	}
	if parsed.MIME != original.MIME || !bytes.Equal(parsed.Data, original.Data) {
		t.Error("round trip changed the payload")
	}
}

func TestParseDataURIErrors(t *testing.T) {
	cases := []string{
		"",
		"http://example.com/image.png",
		"data:image/png",
		"data:;base64,AAAA",
		"data:image/png;base64,not!!valid!!base64",
	}
	for _, uri := range cases {
		if _, err := ParseDataURI(uri); err == nil {
			t.Errorf("ParseDataURI(%q) should fail", uri)
		}
	}
}

func TestJSONRoundTrip(t *testing.T) {
	type wrapper struct {
		Image *Payload `json:"image,omitempty"`
	}

	original := wrapper{Image: &Payload{MIME: "image/jpeg", Data: jpegBytes}}

	encoded, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(encoded), `"data:image/jpeg;base64,`) {
		t.Fatalf("encoded = %s", encoded)
	}

	var decoded wrapper
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Image == nil || decoded.Image.MIME != "image/jpeg" || !bytes.Equal(decoded.Image.Data, jpegBytes) {
		t.Error("round trip changed the payload")
	}
}
