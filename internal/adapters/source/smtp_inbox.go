package source

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/google/uuid"
	"github.com/mikey/llm-mail-triage/internal/core"
	"go.uber.org/zap"
)

const defaultInboxSize = 500

// SMTPInbox accepts mail over SMTP and keeps the most recent messages in memory
type SMTPInbox struct {
	logger     *zap.Logger
	listenAddr string
	domain     string
	maxBytes   int64
	server     *smtp.Server
	now        func() time.Time

	mu       sync.Mutex
	messages []*core.RawEmail
	capacity int
}

// NewSMTPInbox creates an inbox holding at most capacity messages
func NewSMTPInbox(logger *zap.Logger, listenAddr, domain string, capacity int, maxBytes int64) *SMTPInbox {
	if capacity <= 0 {
		capacity = defaultInboxSize
	}
	if domain == "" {
		domain = "localhost"
	}
	return &SMTPInbox{
		logger:     logger,
		listenAddr: listenAddr,
		domain:     domain,
		maxBytes:   maxBytes,
		capacity:   capacity,
		now:        time.Now,
	}
}

// Start starts the SMTP listener
func (i *SMTPInbox) Start() error {
	i.server = smtp.NewServer(&smtpBackend{inbox: i})
	i.server.Addr = i.listenAddr
	i.server.Domain = i.domain
	i.server.ReadTimeout = 30 * time.Second
	i.server.WriteTimeout = 30 * time.Second
	i.server.MaxMessageBytes = i.maxBytes
	i.server.MaxRecipients = 50

	i.logger.Info("SMTP inbox starting", zap.String("address", i.listenAddr))

	go func() {
		if err := i.server.ListenAndServe(); err != nil && !errors.Is(err, smtp.ErrServerClosed) {
			i.logger.Error("SMTP server error", zap.Error(err))
		}
	}()
	return nil
}

// Stop stops the SMTP listener
func (i *SMTPInbox) Stop() error {
	if i.server != nil {
		return i.server.Close()
	}
	return nil
}

// Deliver parses a raw message and stores it. Messages without usable text are dropped.
func (i *SMTPInbox) Deliver(envelopeFrom string, raw []byte) error {
	email, ok, err := ParseMessage("", bytes.NewReader(raw))
	if err != nil {
		return err
	}
	if !ok {
		i.logger.Debug("Dropping message without text", zap.String("from", envelopeFrom))
		return nil
	}
	if email.ID == "" {
		email.ID = uuid.NewString()
	}
	if email.ThreadID == "" {
		email.ThreadID = email.ID
	}
	if email.Sender == "" {
		email.Sender = envelopeFrom
	}
	if email.ReceivedAt.IsZero() {
		email.ReceivedAt = i.now().UTC()
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	i.messages = append(i.messages, email)
	if over := len(i.messages) - i.capacity; over > 0 {
		i.messages = append([]*core.RawEmail(nil), i.messages[over:]...)
	}
	return nil
}

// ListRecent returns buffered messages received within the window, newest first
func (i *SMTPInbox) ListRecent(_ context.Context, windowDays int, limit int) ([]*core.RawEmail, error) {
	cutoff := i.now().AddDate(0, 0, -windowDays)

	i.mu.Lock()
	defer i.mu.Unlock()

	out := make([]*core.RawEmail, 0, min(len(i.messages), limit))
	for j := len(i.messages) - 1; j >= 0 && len(out) < limit; j-- {
		if i.messages[j].ReceivedAt.Before(cutoff) {
			continue
		}
		out = append(out, i.messages[j])
	}
	return out, nil
}

// Len returns the number of buffered messages
func (i *SMTPInbox) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.messages)
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	inbox *SMTPInbox
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{inbox: b.inbox}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	inbox      *SMTPInbox
	sender     string
	recipients []string
}

func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = nil
}

func (s *smtpSession) Logout() error {
	return nil
}

func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

func (s *smtpSession) Data(r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		s.inbox.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}
	if err := s.inbox.Deliver(s.sender, raw); err != nil {
		s.inbox.logger.Error("Failed to parse email message",
			zap.String("from", s.sender),
			zap.Error(err))
		return &smtp.SMTPError{
			Code:         554,
			EnhancedCode: smtp.EnhancedCode{5, 6, 0},
			Message:      "Message could not be parsed",
		}
	}
	s.inbox.logger.Info("Accepted message",
		zap.String("from", s.sender),
		zap.Int("recipients", len(s.recipients)))
	return nil
}
