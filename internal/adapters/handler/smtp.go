package handler

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/tropical-362827/futaba-shieldgemma/internal/core"
	"go.uber.org/zap"
)

// SMTPNotifier mails flagged reports to an operator. Non-flagged reports are
// ignored so the mailbox only sees posts that need attention.
type SMTPNotifier struct {
	addr      string
	from      string
	to        []string
	username  string
	password  string
	threadURL string
	logger    *zap.Logger
}

// NewSMTPNotifier creates a new SMTP notifier. Username may be empty for
// relays that accept unauthenticated submission.
func NewSMTPNotifier(addr, from string, to []string, username, password, threadURL string, logger *zap.Logger) *SMTPNotifier {
	return &SMTPNotifier{
		addr:      addr,
		from:      from,
		to:        to,
		username:  username,
		password:  password,
		threadURL: threadURL,
		logger:    logger,
	}
}

// Handle sends a notification mail when the report is flagged.
func (h *SMTPNotifier) Handle(ctx context.Context, report *core.PostReport) error {
	if report.Status != core.StatusFlagged {
		return nil
	}

	message := h.buildMessage(report)
	if err := h.send(message); err != nil {
		return fmt.Errorf("failed to send notification mail: %w", err)
	}

	h.logger.Info("Sent flag notification",
		zap.Int64("post", report.Post.ID),
		zap.Strings("to", h.to))
	return nil
}

func (h *SMTPNotifier) buildMessage(report *core.PostReport) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", h.from)
	for _, to := range h.to {
		fmt.Fprintf(&buf, "To: %s\r\n", to)
	}
	fmt.Fprintf(&buf, "Subject: [futaba-shieldgemma] post %d flagged as %s (%.4f)\r\n",
		report.Post.ID, report.Verdict.Category, report.Verdict.Score)
	fmt.Fprintf(&buf, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")

	fmt.Fprintf(&buf, "Post #%d was flagged.\r\n\r\n", report.Post.ID)
	fmt.Fprintf(&buf, "Category: %s\r\nScore: %.4f\r\n", report.Verdict.Category, report.Verdict.Score)
	if report.Scores != nil {
		fmt.Fprintf(&buf, "All scores: sexual=%.4f dangerous=%.4f violent=%.4f\r\n",
			report.Scores.Sexual, report.Scores.Dangerous, report.Scores.Violent)
	}
	if report.Post.Image != nil {
		fmt.Fprintf(&buf, "Image: %s\r\n", report.Post.Image.URL)
	}
	if h.threadURL != "" {
		fmt.Fprintf(&buf, "Thread: %s\r\n", h.threadURL)
	}
	return buf.Bytes()
}

// send delivers the message over a fresh SMTP connection. Notifications are
// rare enough that connection reuse is not worth the state.
func (h *SMTPNotifier) send(message []byte) error {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", h.addr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}

	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}

	if h.username != "" {
		if err := c.Auth(sasl.NewPlainClient("", h.username, h.password)); err != nil {
			return fmt.Errorf("AUTH failed: %w", err)
		}
	}

	if err := c.Mail(h.from, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	recipientOK := false
	for _, to := range h.to {
		if err := c.Rcpt(to, nil); err != nil {
			h.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", to),
				zap.Error(err))
		} else {
			recipientOK = true
		}
	}
	if !recipientOK {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(message); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send message data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		h.logger.Warn("QUIT command failed", zap.Error(err))
	}
	return nil
}
