package core

import (
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEmailTemplates(t *testing.T) {
	require.NoError(t, ParseEmailTemplates())

	entry, ok := templates["student_welcome"]
	require.True(t, ok, "student_welcome not parsed")
	assert.NotNil(t, entry.text)
	assert.NotNil(t, entry.html)

	for name := range templates {
		assert.NotEqual(t, '_', rune(name[0]), "layout %q parsed as a template", name)
	}
}

func TestEmailMessage_Render(t *testing.T) {
	conf := &Config{AppName: "Kulliya", FrontendBaseURL: "https://kulliya.test"}
	data := map[string]interface{}{
		"Name":      "Amina Yusuf",
		"StudentID": "STU20240001",
		"Email":     "amina@test.cd",
		"Password":  "TempSTU20240001@2024",
		"SetupURL":  "",
	}

	t.Run("template through base layout", func(t *testing.T) {
		msg := &EmailMessage{
			To:           []mail.Address{{Address: "amina@test.cd"}},
			TemplateName: "student_welcome",
			TemplateData: data,
		}
		require.NoError(t, msg.Render(conf))

		for _, content := range []string{msg.TextContent, msg.HTMLContent} {
			assert.Contains(t, content, "Hello Amina Yusuf")
			assert.Contains(t, content, "STU20240001")
			// footer comes from the base layout
			assert.Contains(t, content, "The Kulliya Admissions Office")
			assert.Contains(t, content, "https://kulliya.test")
		}
		assert.Contains(t, msg.HTMLContent, "<!DOCTYPE html>")
	})

	t.Run("already rendered", func(t *testing.T) {
		msg := &EmailMessage{TemplateName: "student_welcome", TemplateData: data, TextContent: "kept"}
		require.NoError(t, msg.Render(conf))
		assert.Equal(t, "kept", msg.TextContent)
		assert.Empty(t, msg.HTMLContent)
	})

	t.Run("plain body", func(t *testing.T) {
		msg := &EmailMessage{BodyStr: "hi"}
		require.NoError(t, msg.Render(conf))
		assert.Equal(t, "hi", msg.TextContent)
	})

	t.Run("unknown template", func(t *testing.T) {
		msg := &EmailMessage{TemplateName: "lol"}
		assert.EqualError(t, msg.Render(conf), `email template "lol" not found`)
	})
}
