package extractor

import (
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"os"
	"strings"
)

func extractEML(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", &ExtractionError{Path: path, Err: err}
	}
	defer f.Close()

	msg, err := mail.ReadMessage(f)
	if err != nil {
		return "", &ExtractionError{Path: path, Err: err}
	}

	var body strings.Builder
	if subject := msg.Header.Get("Subject"); subject != "" {
		body.WriteString("Subject: ")
		body.WriteString(decodeHeader(subject))
		body.WriteString("\n\n")
	}

	text, err := extractMailBody(msg.Header.Get("Content-Type"),
		msg.Header.Get("Content-Transfer-Encoding"), msg.Body)
	if err != nil {
		return "", &ExtractionError{Path: path, Err: err}
	}
	body.WriteString(text)

	return body.String(), nil
}

// extractMailBody collects the text/plain parts of a message, recursing
// one level into multipart containers. Parts that fail to decode are
// skipped rather than failing the whole message.
func extractMailBody(contentType, transferEncoding string, r io.Reader) (string, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		// No declared content type; treat the body as plain text.
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" {
			return "", nil
		}

		var parts []string
		mr := multipart.NewReader(r, boundary)
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				break
			}

			text, err := extractMailBody(part.Header.Get("Content-Type"),
				part.Header.Get("Content-Transfer-Encoding"), part)
			if err == nil && text != "" {
				parts = append(parts, text)
			}
		}
		return strings.Join(parts, "\n"), nil
	}

	if mediaType != "text/plain" {
		return "", nil
	}

	decoded := decodeTransferEncoding(transferEncoding, r)
	data, err := io.ReadAll(decoded)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func decodeTransferEncoding(encoding string, r io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, r)
	default:
		return r
	}
}

// decodeHeader decodes RFC 2047 encoded-words, falling back to the raw
// value.
func decodeHeader(value string) string {
	dec := new(mime.WordDecoder)
	decoded, err := dec.DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}
