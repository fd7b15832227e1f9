package email

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"afisha/internal/domain"
)

func TestTemplateRenderer_RequestConfirmed(t *testing.T) {
	r := NewTemplateRenderer()

	subject, htmlBody, textBody, err := r.Render("request_confirmed", &domain.RequestDecisionEmailData{
		Email:      "user@example.com",
		EventTitle: "Go Meetup",
		Confirmed:  true,
	})
	require.NoError(t, err)
	require.Contains(t, subject, "Go Meetup")
	require.Contains(t, htmlBody, "Go Meetup")
	require.Contains(t, textBody, "Go Meetup")
	require.False(t, strings.HasSuffix(subject, "\n"))
}

func TestTemplateRenderer_RequestRejected(t *testing.T) {
	r := NewTemplateRenderer()

	subject, htmlBody, textBody, err := r.Render("request_rejected", &domain.RequestDecisionEmailData{
		EventTitle: "Jazz Night",
	})
	require.NoError(t, err)
	require.Contains(t, subject, "Jazz Night")
	require.Contains(t, htmlBody, "not confirmed")
	require.Contains(t, textBody, "not confirmed")
}

func TestTemplateRenderer_UnknownTemplate(t *testing.T) {
	r := NewTemplateRenderer()

	_, _, _, err := r.Render("does_not_exist", nil)
	require.Error(t, err)
}
