package mail

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"
	"github.com/ternarybob/arbor"

	"github.com/linkforge/linkforge/internal/common"
	"github.com/linkforge/linkforge/internal/interfaces"
)

// verificationLinkPattern matches verification/confirmation links in mail
// bodies.
var verificationLinkPattern = regexp.MustCompile(`https?://[^\s<>"]*(?:verify|confirm|activate)[^\s<>"]*`)

// Subject fragments that identify a verification mail, lowercase.
var verificationSubjects = []string{
	"verify",
	"confirm",
	"activate your account",
	"welcome",
}

// VerificationMail is one parsed verification message.
type VerificationMail struct {
	SeqNum  uint32
	From    string
	Subject string
	Link    string
	Date    time.Time
}

// Checker polls an IMAP mailbox for platform verification mails and marks
// the matching accounts verified. Accounts stuck in needs_verification are
// unblocked manually through the extracted link; the checker only records
// that the mail arrived.
type Checker struct {
	config   common.MailConfig
	accounts interfaces.AccountStorage
	logger   arbor.ILogger

	stop chan struct{}
	done chan struct{}
}

// NewChecker creates a verification mail checker.
func NewChecker(config common.MailConfig, accounts interfaces.AccountStorage, logger arbor.ILogger) *Checker {
	return &Checker{
		config:   config,
		accounts: accounts,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins periodic polling. No-op when the checker is disabled or not
// configured.
func (c *Checker) Start(ctx context.Context) {
	if !c.config.Enabled || c.config.Host == "" {
		c.logger.Debug().Msg("Verification mail checker disabled")
		close(c.done)
		return
	}

	interval := c.config.PollInterval
	if interval <= 0 {
		interval = 2 * time.Minute
	}

	go func() {
		defer close(c.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-c.stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := c.checkOnce(ctx); err != nil {
					c.logger.Warn().Err(err).Msg("Verification mail check failed")
				}
			}
		}
	}()

	c.logger.Info().
		Str("host", c.config.Host).
		Dur("interval", interval).
		Msg("Verification mail checker started")
}

// Stop halts polling and waits for the loop to exit.
func (c *Checker) Stop() {
	select {
	case <-c.stop:
	default:
		close(c.stop)
	}
	<-c.done
}

// checkOnce fetches unread verification mails and flags matching unverified
// accounts.
func (c *Checker) checkOnce(ctx context.Context) error {
	mails, err := c.FetchVerificationMails()
	if err != nil {
		return err
	}
	if len(mails) == 0 {
		return nil
	}

	unverified, err := c.accounts.ListUnverifiedAccounts(ctx)
	if err != nil {
		return fmt.Errorf("list unverified accounts: %w", err)
	}

	for _, m := range mails {
		for _, account := range unverified {
			if !mailMatchesAccount(m, account.Email) {
				continue
			}

			account.Verified = true
			if err := c.accounts.SaveAccount(ctx, account); err != nil {
				c.logger.Warn().Err(err).Str("account_id", account.ID).Msg("Failed to persist verified account")
				continue
			}

			c.logger.Info().
				Str("account_id", account.ID).
				Str("platform", string(account.Platform)).
				Str("link", m.Link).
				Msg("Verification mail received for account")
		}
	}
	return nil
}

// mailMatchesAccount links a verification mail to an account by recipient
// address appearing in the body or the platform mailing the account's
// address domain.
func mailMatchesAccount(m VerificationMail, email string) bool {
	if email == "" {
		return false
	}
	return strings.Contains(strings.ToLower(m.Subject), strings.ToLower(email)) ||
		strings.Contains(strings.ToLower(m.From), strings.ToLower(emailDomain(email)))
}

func emailDomain(email string) string {
	if at := strings.LastIndex(email, "@"); at >= 0 {
		return email[at+1:]
	}
	return email
}

// FetchVerificationMails connects, searches unseen messages, and returns
// those that look like verification mails, with the verification link
// extracted when present.
func (c *Checker) FetchVerificationMails() ([]VerificationMail, error) {
	addr := fmt.Sprintf("%s:%d", c.config.Host, c.config.Port)

	var conn *client.Client
	var err error
	if c.config.UseTLS {
		conn, err = client.DialTLS(addr, nil)
	} else {
		conn, err = client.Dial(addr)
	}
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", addr, err)
	}
	defer conn.Logout()

	if err := conn.Login(c.config.Username, c.config.Password); err != nil {
		return nil, fmt.Errorf("imap login: %w", err)
	}

	folder := c.config.Folder
	if folder == "" {
		folder = "INBOX"
	}
	mbox, err := conn.Select(folder, false)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", folder, err)
	}
	if mbox.Messages == 0 {
		return nil, nil
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	seqNums, err := conn.Search(criteria)
	if err != nil {
		return nil, fmt.Errorf("search unseen: %w", err)
	}
	if len(seqNums) == 0 {
		return nil, nil
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(seqNums...)

	section := &imap.BodySectionName{}
	messages := make(chan *imap.Message, len(seqNums))
	done := make(chan error, 1)
	go func() {
		done <- conn.Fetch(seqSet, []imap.FetchItem{imap.FetchEnvelope, imap.FetchFlags, section.FetchItem()}, messages)
	}()

	var results []VerificationMail
	for msg := range messages {
		if msg == nil || msg.Envelope == nil {
			continue
		}
		if !isVerificationSubject(msg.Envelope.Subject) {
			continue
		}

		body, err := parseTextBody(msg, section)
		if err != nil {
			c.logger.Warn().Err(err).Int64("seq", int64(msg.SeqNum)).Msg("Failed to parse mail body")
			continue
		}

		from := ""
		if len(msg.Envelope.From) > 0 {
			from = msg.Envelope.From[0].Address()
		}

		results = append(results, VerificationMail{
			SeqNum:  msg.SeqNum,
			From:    from,
			Subject: msg.Envelope.Subject,
			Link:    verificationLinkPattern.FindString(body),
			Date:    msg.Envelope.Date,
		})
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("fetch messages: %w", err)
	}
	return results, nil
}

func isVerificationSubject(subject string) bool {
	lowered := strings.ToLower(subject)
	for _, marker := range verificationSubjects {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

// parseTextBody extracts the first text/plain part from a fetched message.
func parseTextBody(msg *imap.Message, section *imap.BodySectionName) (string, error) {
	r := msg.GetBody(section)
	if r == nil {
		return "", fmt.Errorf("no body section")
	}

	mr, err := mail.CreateReader(r)
	if err != nil {
		return "", fmt.Errorf("create mail reader: %w", err)
	}

	var body string
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read part: %w", err)
		}

		if h, ok := p.Header.(*mail.InlineHeader); ok {
			contentType, _, _ := h.ContentType()
			if strings.HasPrefix(contentType, "text/plain") {
				b, err := io.ReadAll(p.Body)
				if err != nil {
					return "", fmt.Errorf("read body: %w", err)
				}
				body = string(b)
			}
		}
	}
	return strings.TrimSpace(body), nil
}
