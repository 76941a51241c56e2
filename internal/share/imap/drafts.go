package imap

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/emersion/go-imap"
	imapclient "github.com/emersion/go-imap/client"

	"vitrina/internal/config"
)

type Connector struct {
	host     string
	port     int
	secure   bool
	user     string
	password string
	mailbox  string
}

func NewConnector(cfg config.Config) (*Connector, error) {
	if err := cfg.Require("IMAP_HOST", cfg.IMAPHost); err != nil {
		return nil, err
	}
	if err := cfg.Require("IMAP_USER", cfg.IMAPUser); err != nil {
		return nil, err
	}
	if err := cfg.Require("IMAP_PASSWORD", cfg.IMAPPassword); err != nil {
		return nil, err
	}

	mailbox := cfg.IMAPDraftsMailbox
	if mailbox == "" {
		mailbox = "Drafts"
	}
	return &Connector{
		host:     cfg.IMAPHost,
		port:     cfg.IMAPPort,
		secure:   cfg.IMAPSecure,
		user:     cfg.IMAPUser,
		password: cfg.IMAPPassword,
		mailbox:  mailbox,
	}, nil
}

// SaveDraft appends the message to the drafts mailbox flagged \Draft. IMAP
// has no draft ids, so the mailbox name is returned.
func (c *Connector) SaveDraft(ctx context.Context, raw []byte) (string, error) {
	addr := fmt.Sprintf("%s:%d", c.host, c.port)
	var client *imapclient.Client
	var err error
	if c.secure {
		client, err = imapclient.DialTLS(addr, &tls.Config{ServerName: c.host})
	} else {
		client, err = imapclient.Dial(addr)
	}
	if err != nil {
		return "", err
	}
	defer client.Logout()

	if deadline, ok := ctx.Deadline(); ok {
		client.Timeout = time.Until(deadline)
	}

	if err := client.Login(c.user, c.password); err != nil {
		return "", err
	}

	flags := []string{imap.DraftFlag, imap.SeenFlag}
	if err := client.Append(c.mailbox, flags, time.Now(), bytes.NewBuffer(raw)); err != nil {
		return "", fmt.Errorf("append to %s: %w", c.mailbox, err)
	}
	return c.mailbox, nil
}
