package smtp

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/go-consult-auth/internal/domain"
)

var challengeTmpl = template.Must(template.New("challenge").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif;">
  <h2>{{.Heading}}</h2>
  <p>{{.Intro}}</p>
  <p style="font-size: 28px; letter-spacing: 6px;"><strong>{{.Code}}</strong></p>
  <p>This code expires in {{.Minutes}} minutes. If you did not request it, you can ignore this email.</p>
</body>
</html>`))

type challengeView struct {
	Heading string
	Intro   string
	Code    string
	Minutes int
}

// ChallengeNotifier emails one-time codes.
type ChallengeNotifier struct {
	mailer Mailer
	ttl    time.Duration
}

func NewChallengeNotifier(m Mailer, ttl time.Duration) *ChallengeNotifier {
	return &ChallengeNotifier{mailer: m, ttl: ttl}
}

func subjectFor(p domain.ChallengePurpose) (subject, intro string) {
	if p == domain.PurposeSignup {
		return "Verify your account", "Use the code below to finish creating your account."
	}
	return "Login verification", "Use the code below to sign in."
}

func (n *ChallengeNotifier) SendChallenge(ctx context.Context, email, code string, purpose domain.ChallengePurpose) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	subject, intro := subjectFor(purpose)
	minutes := int(n.ttl / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	var buf bytes.Buffer
	if err := challengeTmpl.Execute(&buf, challengeView{Heading: subject, Intro: intro, Code: code, Minutes: minutes}); err != nil {
		return fmt.Errorf("render challenge email: %w", err)
	}
	return n.mailer.SendEmail(email, subject, buf.String())
}
