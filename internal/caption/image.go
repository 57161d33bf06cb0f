package caption

import (
	"encoding/base64"
	stderrors "errors"
	"net/http"
	"regexp"
	"strings"
)

// DefaultMimeType is assumed when a data URL does not declare an image type.
const DefaultMimeType = "image/jpeg"

var (
	// ErrEmptyImage is returned for a zero-length payload.
	ErrEmptyImage = stderrors.New("image payload is empty")

	// ErrNotAnImage is returned when the payload is not a raster image.
	// Intake boundaries ignore such payloads silently.
	ErrNotAnImage = stderrors.New("payload is not an image")
)

// dataURLRegex matches "data:<mime>;base64," prefixes.
var dataURLRegex = regexp.MustCompile(`^data:([a-zA-Z0-9.+/-]*);base64,`)

// Image is an image payload: raw bytes plus their MIME type.
type Image struct {
	MimeType string `json:"mime_type"`
	Data     []byte `json:"data"`
}

// NewImage validates data as an image. The MIME type is sniffed from the
// bytes; declared is used only when sniffing cannot identify the format
// (newer formats such as AVIF or HEIC) and it names an image type.
func NewImage(data []byte, declared string) (Image, error) {
	if len(data) == 0 {
		return Image{}, ErrEmptyImage
	}

	sniffed := http.DetectContentType(data)
	if strings.HasPrefix(sniffed, "image/") {
		return Image{MimeType: sniffed, Data: data}, nil
	}

	declared = strings.ToLower(strings.TrimSpace(declared))
	if sniffed == "application/octet-stream" && strings.HasPrefix(declared, "image/") {
		return Image{MimeType: declared, Data: data}, nil
	}

	return Image{}, ErrNotAnImage
}

// ParseDataURL decodes a "data:image/...;base64," URL. A bare base64 string
// without prefix is accepted as well and treated as DefaultMimeType.
func ParseDataURL(s string) (Image, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Image{}, ErrEmptyImage
	}

	declared := DefaultMimeType
	payload := s
	if m := dataURLRegex.FindStringSubmatch(s); m != nil {
		if m[1] != "" {
			declared = m[1]
		}
		payload = s[len(m[0]):]
	} else if strings.HasPrefix(s, "data:") {
		return Image{}, ErrNotAnImage
	}

	if !strings.HasPrefix(declared, "image/") {
		return Image{}, ErrNotAnImage
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Image{}, ErrNotAnImage
	}
	return NewImage(data, declared)
}

// IsZero reports whether no image is set.
func (i Image) IsZero() bool {
	return len(i.Data) == 0
}

// Base64 returns the payload as standard base64 without a data URL prefix.
func (i Image) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

// DataURL returns the payload as a data URL.
func (i Image) DataURL() string {
	mime := i.MimeType
	if mime == "" {
		mime = DefaultMimeType
	}
	return "data:" + mime + ";base64," + i.Base64()
}

// Clone returns a copy that shares no backing array.
func (i Image) Clone() Image {
	if i.Data == nil {
		return i
	}
	data := make([]byte, len(i.Data))
	copy(data, i.Data)
	return Image{MimeType: i.MimeType, Data: data}
}
