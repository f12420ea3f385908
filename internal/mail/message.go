package mail

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/textproto"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/znz-systems/leadform/internal/models"
)

// Message is one notification to the configured recipient.
type Message struct {
	Subject     string
	Body        string
	ReplyTo     string
	Attachments []models.Attachment
}

type decodedAttachment struct {
	filename    string
	contentType string
	data        []byte
}

var headerSanitizer = strings.NewReplacer("\r", " ", "\n", " ")

func sanitizeHeader(v string) string {
	return strings.TrimSpace(headerSanitizer.Replace(v))
}

// decodeAttachments decodes each attachment on its own. One bad payload is
// logged and skipped; it never drops the others.
func decodeAttachments(atts []models.Attachment) []decodedAttachment {
	var out []decodedAttachment
	for i, a := range atts {
		data, err := decodeBase64(a.B64)
		if err != nil {
			slog.Warn("skipping undecodable attachment", "index", i, "filename", a.Filename, "error", err)
			continue
		}
		name := sanitizeHeader(a.Filename)
		if name == "" {
			name = fmt.Sprintf("attachment-%d", i+1)
		}
		ct, _, err := mime.ParseMediaType(sanitizeHeader(a.ContentType))
		if err != nil {
			ct = "application/octet-stream"
		}
		out = append(out, decodedAttachment{filename: name, contentType: ct, data: data})
	}
	return out
}

// decodeBase64 accepts plain base64 (padded or not, whitespace ignored) and
// browser data URLs.
func decodeBase64(s string) ([]byte, error) {
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ";base64,"); i >= 0 {
			s = s[i+len(";base64,"):]
		}
	}
	s = strings.Join(strings.Fields(s), "")
	if s == "" {
		return nil, fmt.Errorf("empty payload")
	}
	if data, err := base64.StdEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}

// compose renders msg as an RFC 5322 message with a UTF-8 plain-text body.
// With attachments the message is multipart/mixed.
func compose(from, to string, msg *Message, atts []decodedAttachment, now time.Time) ([]byte, error) {
	var buf bytes.Buffer

	writeHeader := func(k, v string) {
		fmt.Fprintf(&buf, "%s: %s\r\n", k, v)
	}
	writeHeader("From", sanitizeHeader(from))
	writeHeader("To", sanitizeHeader(to))
	if replyTo := sanitizeHeader(msg.ReplyTo); replyTo != "" {
		writeHeader("Reply-To", replyTo)
	}
	writeHeader("Subject", mime.QEncoding.Encode("utf-8", sanitizeHeader(msg.Subject)))
	writeHeader("Date", now.Format(time.RFC1123Z))
	writeHeader("Message-ID", fmt.Sprintf("<%s@%s>", uuid.NewString(), domainOf(from)))
	writeHeader("MIME-Version", "1.0")

	if len(atts) == 0 {
		writeHeader("Content-Type", `text/plain; charset="utf-8"`)
		writeHeader("Content-Transfer-Encoding", "quoted-printable")
		buf.WriteString("\r\n")
		if err := writeQuotedPrintable(&buf, msg.Body); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	mw := multipart.NewWriter(&buf)
	writeHeader("Content-Type", mime.FormatMediaType("multipart/mixed", map[string]string{"boundary": mw.Boundary()}))
	buf.WriteString("\r\n")

	text, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {`text/plain; charset="utf-8"`},
		"Content-Transfer-Encoding": {"quoted-printable"},
	})
	if err != nil {
		return nil, err
	}
	if err := writeQuotedPrintable(text, msg.Body); err != nil {
		return nil, err
	}

	for _, a := range atts {
		part, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {mime.FormatMediaType(a.contentType, map[string]string{"name": a.filename})},
			"Content-Disposition":       {mime.FormatMediaType("attachment", map[string]string{"filename": a.filename})},
			"Content-Transfer-Encoding": {"base64"},
		})
		if err != nil {
			return nil, err
		}
		if err := writeBase64Lines(part, a.data); err != nil {
			return nil, err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeQuotedPrintable(w io.Writer, body string) error {
	qp := quotedprintable.NewWriter(w)
	if _, err := qp.Write([]byte(body)); err != nil {
		return err
	}
	return qp.Close()
}

// writeBase64Lines wraps the encoded payload at 76 characters per line.
func writeBase64Lines(w io.Writer, data []byte) error {
	enc := base64.StdEncoding.EncodeToString(data)
	for len(enc) > 76 {
		if _, err := fmt.Fprintf(w, "%s\r\n", enc[:76]); err != nil {
			return err
		}
		enc = enc[76:]
	}
	_, err := fmt.Fprintf(w, "%s\r\n", enc)
	return err
}

func domainOf(addr string) string {
	if i := strings.LastIndex(addr, "@"); i >= 0 && i < len(addr)-1 {
		return sanitizeHeader(addr[i+1:])
	}
	return "localhost"
}
