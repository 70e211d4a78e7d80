package emailsvc

import (
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/kulliya/core"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func TestConsoleServiceMock_SendMessages(t *testing.T) {
	ResetSentMessages()
	conf := core.NewConfig()
	svc := NewConsoleServiceMock(conf, nopLogger{})

	svc.SendMessages(
		&core.EmailMessage{
			To:           []mail.Address{{Name: "Amina Yusuf", Address: "amina@example.com"}},
			Subject:      "Welcome",
			TemplateName: "student_welcome",
			TemplateData: map[string]interface{}{
				"Name":      "Amina Yusuf",
				"StudentID": "CS2024-0001",
				"Email":     "amina@example.com",
				"Password":  "TempCS2024-0001@2024",
				"SetupURL":  "http://localhost:8080/password-reset/x/y",
			},
		},
		&core.EmailMessage{Subject: "no recipients", BodyStr: "ignored"},
		&core.EmailMessage{To: []mail.Address{{Address: "a@b.c"}}, TemplateName: "nope"},
	)

	require.Len(t, SentMessages, 1)
	msg := SentMessages[0]
	assert.Contains(t, msg.TextContent, "CS2024-0001")
	assert.Contains(t, msg.TextContent, "TempCS2024-0001@2024")
	assert.Contains(t, msg.TextContent, "/password-reset/x/y")
	assert.Contains(t, msg.HTMLContent, "CS2024-0001")
}

func TestSendgridService_prepare(t *testing.T) {
	conf := core.NewConfig()
	svc := NewSendgridService(conf, nopLogger{})

	m := svc.prepare(core.EmailMessage{
		To:          []mail.Address{{Name: "Amina", Address: "amina@example.com"}},
		Cc:          []mail.Address{{Address: "registrar@example.com"}},
		Subject:     "Welcome",
		TextContent: "hello",
	})

	require.Len(t, m.Personalizations, 1)
	p := m.Personalizations[0]
	assert.True(t, strings.HasPrefix(p.Subject, "["+conf.AppName+"] "))
	require.Len(t, p.To, 1)
	assert.Equal(t, "amina@example.com", p.To[0].Address)
	require.Len(t, p.CC, 1)
	// no html part without html content
	require.Len(t, m.Content, 1)
	assert.Equal(t, "text/plain", m.Content[0].Type)
	assert.Equal(t, conf.DefaultFromEmail().Address, m.From.Address)
}
