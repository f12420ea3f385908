package mail

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	netmail "net/mail"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/znz-systems/leadform/internal/models"
)

func testConfig() Config {
	return Config{
		Host:     "smtp.zoho.in",
		Port:     465,
		From:     "sales@example.com",
		Password: "app-pass",
		Timeout:  time.Second,
	}
}

// captureSend stubs the transport and returns a pointer to the last message.
func captureSend(t *testing.T, err error) *[]byte {
	t.Helper()
	var captured []byte
	withStubSendMail(t, func(_ context.Context, _, _ string, _ time.Duration, _ smtp.Auth, _ string, _ []string, msg []byte) error {
		captured = append([]byte(nil), msg...)
		return err
	})
	return &captured
}

func TestDispatcherSend_MissingCredentialsSkipsNetwork(t *testing.T) {
	withStubSendMail(t, func(context.Context, string, string, time.Duration, smtp.Auth, string, []string, []byte) error {
		t.Fatal("transport must not be called without credentials")
		return nil
	})

	for _, cfg := range []Config{
		{Host: "smtp.zoho.in", Port: 465},
		{Host: "smtp.zoho.in", Port: 465, From: "sales@example.com"},
		{Host: "smtp.zoho.in", Port: 465, Password: "app-pass"},
	} {
		d := NewDispatcher(cfg)
		out := d.Send(context.Background(), &Message{Subject: "s", Body: "b"})
		if out.Sent {
			t.Fatalf("expected Sent=false for %+v", cfg)
		}
		if !errors.Is(out.Err, ErrNoCredentials) {
			t.Fatalf("expected ErrNoCredentials, got %v", out.Err)
		}
	}
}

func TestDispatcherSend_TransportFailureIsOutcome(t *testing.T) {
	captureSend(t, errors.New("connection refused"))

	d := NewDispatcher(testConfig())
	out := d.Send(context.Background(), &Message{Subject: "s", Body: "b"})
	if out.Sent {
		t.Fatal("expected Sent=false on transport failure")
	}
	if out.Err == nil || !strings.Contains(out.Err.Error(), "connection refused") {
		t.Fatalf("expected transport error in outcome, got %v", out.Err)
	}
}

func TestDispatcherSend_PlainMessageHeaders(t *testing.T) {
	captured := captureSend(t, nil)

	d := NewDispatcher(testConfig())
	out := d.Send(context.Background(), &Message{
		Subject: ContactSubject("A. Rao"),
		Body:    ContactNotificationBody("A. Rao", "a@x.com", "Hi"),
		ReplyTo: "a@x.com",
	})
	if !out.Sent {
		t.Fatalf("expected Sent=true, got %+v", out)
	}

	msg, err := netmail.ReadMessage(strings.NewReader(string(*captured)))
	if err != nil {
		t.Fatalf("parse message: %v", err)
	}
	if got := msg.Header.Get("From"); got != "sales@example.com" {
		t.Errorf("unexpected From: %q", got)
	}
	if got := msg.Header.Get("To"); got != "sales@example.com" {
		t.Errorf("expected recipient to default to sender, got %q", got)
	}
	if got := msg.Header.Get("Reply-To"); got != "a@x.com" {
		t.Errorf("unexpected Reply-To: %q", got)
	}
	if got := msg.Header.Get("Subject"); got != "New website inquiry from A. Rao" {
		t.Errorf("unexpected Subject: %q", got)
	}
	if !strings.HasSuffix(msg.Header.Get("Message-ID"), "@example.com>") {
		t.Errorf("unexpected Message-ID: %q", msg.Header.Get("Message-ID"))
	}
	body, _ := io.ReadAll(msg.Body)
	if !strings.Contains(string(body), "Email: a@x.com") {
		t.Errorf("unexpected body: %q", body)
	}
}

func TestDispatcherSend_NoReplyToWithoutVisitorEmail(t *testing.T) {
	captured := captureSend(t, nil)

	d := NewDispatcher(testConfig())
	d.Send(context.Background(), &Message{Subject: "s", Body: "b"})
	if strings.Contains(string(*captured), "Reply-To:") {
		t.Fatalf("unexpected Reply-To header in %q", *captured)
	}
}

func TestDispatcherSend_HeaderInjectionStripped(t *testing.T) {
	captured := captureSend(t, nil)

	d := NewDispatcher(testConfig())
	d.Send(context.Background(), &Message{Subject: "hi\r\nBcc: evil@example.com", Body: "b"})
	if strings.Contains(string(*captured), "\r\nBcc:") {
		t.Fatalf("header injection not neutralised: %q", *captured)
	}
}

func TestDispatcherSend_AttachmentsDecodedIndependently(t *testing.T) {
	captured := captureSend(t, nil)

	pdf := []byte("%PDF-1.4 fake bill")
	d := NewDispatcher(testConfig())
	out := d.Send(context.Background(), &Message{
		Subject: "s",
		Body:    "see attached",
		Attachments: []models.Attachment{
			{Filename: "broken.pdf", ContentType: "application/pdf", B64: "***not base64***"},
			{Filename: "bill.pdf", ContentType: "application/pdf", B64: base64.StdEncoding.EncodeToString(pdf)},
		},
	})
	if !out.Sent {
		t.Fatalf("expected Sent=true despite one bad attachment, got %+v", out)
	}

	msg, err := netmail.ReadMessage(strings.NewReader(string(*captured)))
	if err != nil {
		t.Fatalf("parse message: %v", err)
	}
	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/mixed" {
		t.Fatalf("expected multipart/mixed, got %q (%v)", mediaType, err)
	}

	mr := multipart.NewReader(msg.Body, params["boundary"])
	var filenames []string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("next part: %v", err)
		}
		if part.FileName() == "" {
			continue
		}
		filenames = append(filenames, part.FileName())
		raw, _ := io.ReadAll(part)
		decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(string(raw), "\r\n", ""))
		if err != nil {
			t.Fatalf("decode attachment: %v", err)
		}
		if string(decoded) != string(pdf) {
			t.Errorf("attachment payload mismatch: %q", decoded)
		}
	}
	if len(filenames) != 1 || filenames[0] != "bill.pdf" {
		t.Fatalf("expected only bill.pdf attached, got %v", filenames)
	}
}

func TestDecodeBase64_DataURL(t *testing.T) {
	got, err := decodeBase64("data:application/pdf;base64,aGVs\nbG8=")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("unexpected payload %q", got)
	}
}

func TestDispatcherSend_RateLimitHonoursContext(t *testing.T) {
	captureSend(t, nil)

	cfg := testConfig()
	cfg.RatePerMinute = 1
	d := NewDispatcher(cfg)

	if out := d.Send(context.Background(), &Message{Subject: "s", Body: "b"}); !out.Sent {
		t.Fatalf("expected first send to pass, got %+v", out)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if out := d.Send(ctx, &Message{Subject: "s", Body: "b"}); out.Sent {
		t.Fatal("expected second send within the same minute to be refused")
	}
}
