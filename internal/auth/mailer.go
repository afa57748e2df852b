package auth

import (
	"context"
	"net/url"

	"github.com/rs/zerolog/log"

	"github.com/mrlokans/lms/internal/entities"
)

// Mailer delivers account and notification emails. Delivery itself lives outside this service;
// LogMailer is the built-in implementation.
type Mailer interface {
	SendVerification(ctx context.Context, user *entities.User, link string) error
	SendPasswordReset(ctx context.Context, user *entities.User, link string) error
	SendNotification(ctx context.Context, user *entities.User, message string) error
}

// LogMailer writes account emails to the log instead of sending them.
type LogMailer struct{}

func (LogMailer) SendVerification(_ context.Context, user *entities.User, link string) error {
	log.Info().Uint("user_id", user.ID).Str("email", user.Email).Str("link", link).Msg("verification email")
	return nil
}

func (LogMailer) SendPasswordReset(_ context.Context, user *entities.User, link string) error {
	log.Info().Uint("user_id", user.ID).Str("email", user.Email).Str("link", link).Msg("password reset email")
	return nil
}

func (LogMailer) SendNotification(_ context.Context, user *entities.User, message string) error {
	log.Info().Uint("user_id", user.ID).Str("email", user.Email).Str("message", message).Msg("notification email")
	return nil
}

// buildLink joins the public base URL, path and token query parameter.
func buildLink(base, path, token string) string {
	u, err := url.Parse(base)
	if err != nil || base == "" {
		u = &url.URL{}
	}
	u = u.JoinPath(path)
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}
