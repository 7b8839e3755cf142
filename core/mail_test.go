package core

import (
	"fmt"
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testLogger struct{ t *testing.T }

func (l testLogger) Debug(msg string, args ...interface{}) {}
func (l testLogger) Info(msg string, args ...interface{})  {}
func (l testLogger) Warn(msg string, args ...interface{})  {}
func (l testLogger) Error(msg string, args ...interface{}) { l.t.Errorf("%s %v", msg, args) }
func (l testLogger) Fatal(msg string, args ...interface{}) { l.t.Fatalf("%s %v", msg, args) }

func setupTemplates(t *testing.T) {
	t.Helper()
	origConf := Conf
	Conf = &Config{WorkDir: Getwd(), FrontendBaseURL: "http://test.local", TestMode: true}
	t.Cleanup(func() { Conf = origConf })
	parseTemplates(testLogger{t})
}

func TestEmailMessage_Render(t *testing.T) {
	setupTemplates(t)

	msg := &EmailMessage{
		To:           []mail.Address{{Name: "Part One", Address: "part1@test.cd"}},
		Subject:      "Welcome",
		TemplateName: "welcome",
		TemplateData: struct{ Username string }{"part1"},
	}
	require.NoError(t, msg.Render())
	assert.True(t, msg.HasRecipients())
	assert.True(t, msg.HasContent())
	assert.Contains(t, msg.TextContent, "part1")
	assert.Contains(t, msg.TextContent, "http://test.local")
	assert.Contains(t, msg.HTMLContent, "part1")
}

func TestEmailMessage_Render_passwordReset(t *testing.T) {
	setupTemplates(t)

	msg := &EmailMessage{
		To:           []mail.Address{{Name: "Part One", Address: "part1@test.cd"}},
		Subject:      "Password Reset",
		TemplateName: "password-reset",
		TemplateData: struct{ UID, Token string }{"bG9s", "HE4TS-sigsig"},
	}
	require.NoError(t, msg.Render())
	link := fmt.Sprintf("%s/password-reset/%s/%s", "http://test.local", "bG9s", "HE4TS-sigsig")
	assert.Contains(t, msg.TextContent, link)
	assert.Contains(t, msg.HTMLContent, link)
}

func TestEmailMessage_Render_bodyStrWins(t *testing.T) {
	setupTemplates(t)

	msg := &EmailMessage{BodyStr: "plain content"}
	require.NoError(t, msg.Render())
	assert.Equal(t, "plain content", msg.TextContent)
}

func TestEmailMessage_Attach(t *testing.T) {
	msg := &EmailMessage{}
	require.False(t, msg.HasAttachments())

	require.NoError(t, msg.Attach(strings.NewReader("hello attachment"), "notes.txt"))
	require.True(t, msg.HasAttachments())
	at := msg.Attachments[0]
	assert.Equal(t, "notes.txt", at.Filename)
	assert.Equal(t, "text/plain; charset=utf-8", at.ContentType)
	assert.NotEmpty(t, at.Content.String()) // base64 encoded

	require.NoError(t, msg.Attach(strings.NewReader("{}"), "data.json", "application/json"))
	assert.Equal(t, "application/json", msg.Attachments[1].ContentType)
}
