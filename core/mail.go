package core

import (
	"bytes"
	"embed"
	"fmt"
	htmltmpl "html/template"
	"io/fs"
	"net/mail"
	"path"
	"strings"
	"sync"
	texttmpl "text/template"
)

//go:embed templates/email/*.txt templates/email/*.gohtml
var templatesFS embed.FS

var (
	templates tmplCache
	tmplInit  sync.Once
	tmplErr   error
)

const templatesDir = "templates/email"

type (
	tmplCacheEntry struct {
		text *texttmpl.Template
		html *htmltmpl.Template
	}
	tmplCache map[string]*tmplCacheEntry // {name: entry}

	Attachment struct {
		Content     *bytes.Buffer
		ContentType string
		Filename    string
	}

	EmailMessage struct {
		To          []mail.Address
		Cc          []mail.Address
		Bcc         []mail.Address
		Subject     string
		BodyStr     string // simple text/plain, non-templated content
		Attachments []Attachment

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	ContextData struct {
		AppName         string
		FrontendBaseURL string
		Data            interface{}
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

func (m *EmailMessage) contextData(conf *Config) ContextData {
	return ContextData{
		AppName:         conf.AppName,
		FrontendBaseURL: conf.FrontendBaseURL,
		Data:            m.TemplateData,
	}
}

func (m *EmailMessage) renderText(entry *tmplCacheEntry, data ContextData) error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
		return nil
	}
	if entry == nil || entry.text == nil {
		return nil
	}

	var buff bytes.Buffer
	if err := entry.text.ExecuteTemplate(&buff, "base", data); err != nil {
		return err
	}
	m.TextContent = buff.String()
	return nil
}

func (m *EmailMessage) renderHTML(entry *tmplCacheEntry, data ContextData) error {
	if entry == nil || entry.html == nil {
		return nil
	}

	var buff bytes.Buffer
	if err := entry.html.ExecuteTemplate(&buff, "base", data); err != nil {
		return err
	}
	m.HTMLContent = buff.String()
	return nil
}

// Render fills TextContent and HTMLContent from BodyStr or the named template.
// Already rendered messages are left untouched.
func (m *EmailMessage) Render(conf *Config) error {
	if m.HasContent() {
		return nil
	}
	var entry *tmplCacheEntry
	if m.TemplateName != "" {
		if err := ParseEmailTemplates(); err != nil {
			return err
		}
		var ok bool
		if entry, ok = templates[m.TemplateName]; !ok {
			return fmt.Errorf("email template %q not found", m.TemplateName)
		}
	}
	data := m.contextData(conf)
	if err := m.renderText(entry, data); err != nil {
		return err
	}
	return m.renderHTML(entry, data)
}

func (m *EmailMessage) HasRecipients() bool  { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool     { return (m.TextContent != "") || (m.HTMLContent != "") }
func (m *EmailMessage) HasAttachments() bool { return len(m.Attachments) > 0 }

// ParseEmailTemplates parses the embedded email templates once.
func ParseEmailTemplates() error {
	tmplInit.Do(func() { tmplErr = parseTemplates() })
	return tmplErr
}

func parseTemplates() error {
	templates = make(tmplCache)

	fps, err := fs.Glob(templatesFS, path.Join(templatesDir, "*"))
	if err != nil {
		return fmt.Errorf("core.parseTemplates: %v", err)
	}

	for _, fp := range fps {
		fname := path.Base(fp)
		ext := path.Ext(fname)
		if strings.HasPrefix(fname, "_") || !(ext == ".txt" || ext == ".gohtml") {
			continue
		}
		name := strings.TrimSuffix(fname, ext)
		entry, ok := templates[name]
		if !ok {
			entry = new(tmplCacheEntry)
			templates[name] = entry
		}
		if ext == ".txt" {
			tmpl, err := texttmpl.ParseFS(templatesFS, path.Join(templatesDir, "_base.txt"), fp)
			if err != nil {
				return fmt.Errorf("core.parseTemplates(%s): %v", fname, err)
			}
			entry.text = tmpl.Option("missingkey=error")
		} else {
			tmpl, err := htmltmpl.ParseFS(templatesFS, path.Join(templatesDir, "_base.gohtml"), fp)
			if err != nil {
				return fmt.Errorf("core.parseTemplates(%s): %v", fname, err)
			}
			entry.html = tmpl.Option("missingkey=error")
		}
	}
	return nil
}
