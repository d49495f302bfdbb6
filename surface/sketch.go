package surface

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// Sketch is an encoded raster image as received from the caller.
type Sketch struct {
	Data   []byte
	Format string
}

var errEmptySketch = errors.New("sketch is empty")

// ParseSketch decodes base64 sketch data, with or without a data-URI prefix. The format is
// taken from the prefix when present and sniffed from the bytes otherwise.
func ParseSketch(s string) (Sketch, error) {
	payload := strings.TrimSpace(s)
	format := ""
	if strings.HasPrefix(payload, "data:") {
		comma := strings.IndexByte(payload, ',')
		if comma < 0 {
			return Sketch{}, errors.New("malformed data URI: missing comma")
		}
		header := payload[len("data:"):comma]
		mime, _, _ := strings.Cut(header, ";")
		format = FormatFromMIME(mime)
		payload = payload[comma+1:]
	}
	if payload == "" {
		return Sketch{}, errEmptySketch
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Sketch{}, fmt.Errorf("decode sketch base64: %w", err)
	}
	if sniffed := SniffFormat(data); sniffed != "" {
		format = sniffed
	}
	if format == "" {
		format = "png"
	}
	return Sketch{Data: data, Format: format}, nil
}

// StripDataURI returns the base64 payload of s without any "data:...," header.
func StripDataURI(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		if comma := strings.IndexByte(s, ','); comma >= 0 {
			return s[comma+1:]
		}
	}
	return s
}

// Base64 returns the sketch bytes as standard base64 without a data-URI header.
func (s Sketch) Base64() string {
	return base64.StdEncoding.EncodeToString(s.Data)
}

// DataURI re-attaches the header callers expect.
func (s Sketch) DataURI() string {
	return "data:" + s.MIMEType() + ";base64," + s.Base64()
}

// MIMEType maps the format to its image MIME type.
func (s Sketch) MIMEType() string {
	return MIMEFromFormat(s.Format)
}

// Extension is the file extension for the format, without the dot.
func (s Sketch) Extension() string {
	switch s.Format {
	case "jpeg":
		return "jpg"
	case "":
		return "png"
	}
	return s.Format
}

func MIMEFromFormat(format string) string {
	switch format {
	case "jpeg":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	case "bmp":
		return "image/bmp"
	case "tiff":
		return "image/tiff"
	case "webp":
		return "image/webp"
	}
	return "image/png"
}

func FormatFromMIME(mime string) string {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "image/png":
		return "png"
	case "image/jpeg", "image/jpg":
		return "jpeg"
	case "image/gif":
		return "gif"
	case "image/bmp":
		return "bmp"
	case "image/tiff":
		return "tiff"
	case "image/webp":
		return "webp"
	}
	return ""
}

// SniffFormat recognizes the magic numbers of the supported formats.
func SniffFormat(data []byte) string {
	switch {
	case len(data) >= 8 && string(data[:8]) == "\x89PNG\r\n\x1a\n":
		return "png"
	case len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return "jpeg"
	case len(data) >= 6 && (string(data[:6]) == "GIF87a" || string(data[:6]) == "GIF89a"):
		return "gif"
	case len(data) >= 2 && string(data[:2]) == "BM":
		return "bmp"
	case len(data) >= 4 && (string(data[:4]) == "II*\x00" || string(data[:4]) == "MM\x00*"):
		return "tiff"
	case len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return "webp"
	}
	return ""
}
