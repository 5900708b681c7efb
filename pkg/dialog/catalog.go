package dialog

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/aretw0/intake/pkg/domain"
	"gopkg.in/yaml.v3"
)

//go:embed messages.yaml
var defaultMessages []byte

// Keyboard names used by the dialog.
const (
	KeyboardMain    = "main"
	KeyboardRestart = "restart"
	KeyboardSuccess = "success"
)

// Catalog holds every user-visible text of the dialog.
// Success is a text/template rendered with the committed domain.Booking.
type Catalog struct {
	Welcome        string                     `yaml:"welcome"`
	Menu           string                     `yaml:"menu"`
	TopicPrompt    string                     `yaml:"topic_prompt"`
	NamePrompt     string                     `yaml:"name_prompt"`
	PhonePrompt    string                     `yaml:"phone_prompt"`
	DatePrompt     string                     `yaml:"date_prompt"`
	Success        string                     `yaml:"success"`
	Failure        string                     `yaml:"failure"`
	Cancelled      string                     `yaml:"cancelled"`
	Orientation    string                     `yaml:"orientation"`
	Help           string                     `yaml:"help"`
	TechnicalError string                     `yaml:"technical_error"`
	Keyboards      map[string][]domain.Button `yaml:"keyboards"`

	success *template.Template
}

// DefaultCatalog returns the embedded texts.
func DefaultCatalog() *Catalog {
	c, err := parseCatalog(defaultMessages, nil)
	if err != nil {
		panic(fmt.Sprintf("embedded messages.yaml is invalid: %v", err))
	}
	return c
}

// LoadCatalog reads a YAML file whose keys override the embedded defaults.
// An empty path returns the defaults.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read messages file: %w", err)
	}
	return parseCatalog(data, DefaultCatalog())
}

func parseCatalog(data []byte, base *Catalog) (*Catalog, error) {
	c := &Catalog{}
	if base != nil {
		*c = *base
		c.Keyboards = make(map[string][]domain.Button, len(base.Keyboards))
		for k, v := range base.Keyboards {
			c.Keyboards[k] = v
		}
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("failed to parse messages: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	tmpl, err := template.New("success").Option("missingkey=error").Parse(c.Success)
	if err != nil {
		return nil, fmt.Errorf("invalid success template: %w", err)
	}
	c.success = tmpl
	return c, nil
}

func (c *Catalog) validate() error {
	texts := map[string]string{
		"welcome":         c.Welcome,
		"menu":            c.Menu,
		"topic_prompt":    c.TopicPrompt,
		"name_prompt":     c.NamePrompt,
		"phone_prompt":    c.PhonePrompt,
		"date_prompt":     c.DatePrompt,
		"success":         c.Success,
		"failure":         c.Failure,
		"cancelled":       c.Cancelled,
		"orientation":     c.Orientation,
		"help":            c.Help,
		"technical_error": c.TechnicalError,
	}
	var missing []string
	for key, text := range texts {
		if strings.TrimSpace(text) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("messages: empty texts: %s", strings.Join(missing, ", "))
	}

	for _, name := range []string{KeyboardMain, KeyboardRestart, KeyboardSuccess} {
		if _, ok := c.Keyboards[name]; !ok {
			return fmt.Errorf("messages: keyboard %q is not defined", name)
		}
	}
	for name, buttons := range c.Keyboards {
		for i, b := range buttons {
			if b.Label == "" || (b.Data == "") == (b.URL == "") {
				return fmt.Errorf("messages: keyboard %q button %d needs a label and exactly one of data or url", name, i)
			}
		}
	}
	return nil
}

// renderSuccess executes the success template for b.
func (c *Catalog) renderSuccess(b domain.Booking) string {
	var buf bytes.Buffer
	if err := c.success.Execute(&buf, b); err != nil {
		// Templates are checked at load time; fall back to the raw text.
		return c.Success
	}
	return buf.String()
}

func (c *Catalog) message(text, keyboard string) domain.Message {
	msg := domain.Message{Text: text}
	if keyboard != "" {
		msg.Buttons = append([]domain.Button(nil), c.Keyboards[keyboard]...)
	}
	return msg
}
