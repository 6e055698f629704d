package mailer

import (
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"meetpoll/internal/model"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type Mailer struct {
	cfg  Config
	log  *zerolog.Logger
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// New returns a mailer that only logs messages when cfg.Host is empty.
func New(cfg Config, log *zerolog.Logger) *Mailer {
	return &Mailer{cfg: cfg, log: log, send: smtp.SendMail}
}

// SendDigest mails the organizer the current standing of the poll.
func (m *Mailer) SendDigest(to string, summary *model.EventSummary, shareURL string) error {
	subject, body := ComposeDigest(summary, shareURL)

	if m.cfg.Host == "" {
		m.log.Info().Str("to", to).Str("subject", subject).Msg("mail disabled, digest not sent")
		return nil
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s",
		m.cfg.From, to, subject, body,
	)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))

	if err := m.send(addr, auth, m.cfg.From, []string{to}, []byte(msg)); err != nil {
		m.log.Warn().Err(err).Str("to", to).Msg("failed to send digest")
		return fmt.Errorf("send email: %w", err)
	}

	m.log.Info().Str("to", to).Str("share_id", summary.ShareID).Msg("digest sent")
	return nil
}

// ComposeDigest renders the subject and plain-text body of a digest.
func ComposeDigest(s *model.EventSummary, shareURL string) (subject, body string) {
	subject = fmt.Sprintf("%q: %d %s so far", s.Title, s.ParticipantCount, plural(s.ParticipantCount, "response", "responses"))

	var b strings.Builder
	fmt.Fprintf(&b, "Hello!\n\n%d %s answered your poll %q.\n\n",
		s.ParticipantCount, plural(s.ParticipantCount, "person has", "people have"), s.Title)

	best := make(map[string]bool, len(s.BestTimeOptionIDs))
	for _, id := range s.BestTimeOptionIDs {
		best[id] = true
	}

	if len(best) == 0 {
		b.WriteString("No time stands out yet.\n")
	} else {
		b.WriteString("Best time so far:\n")
		for _, o := range s.TimeOptions {
			if !best[o.ID] {
				continue
			}
			fmt.Fprintf(&b, "  * %s (%d available, %d maybe)\n", Label(o.TimeOption), o.Counts.Available, o.Counts.Maybe)
		}
	}

	if shareURL != "" {
		fmt.Fprintf(&b, "\nSee all answers: %s\n", shareURL)
	}
	return subject, b.String()
}

// Label formats a time option for humans.
func Label(o model.TimeOption) string {
	switch {
	case o.Kind == model.KindRange && o.StartTime != "" && o.EndTime != "":
		return fmt.Sprintf("%s %s to %s %s", o.Date, o.StartTime, o.EndDate, o.EndTime)
	case o.Kind == model.KindRange:
		return fmt.Sprintf("%s to %s", o.Date, o.EndDate)
	default:
		return fmt.Sprintf("%s %s-%s", o.Date, o.StartTime, o.EndTime)
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
