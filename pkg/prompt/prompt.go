package prompt

import (
	"strings"
	"text/template"

	"github.com/jbkun069/AnimeChatCraft/pkg/character"
)

const (
	DefaultName      = "an anime character"
	DefaultGender    = "female"
	DefaultDirective = "Stay in character. Use expressive anime-like language. Refer to yourself with anime tropes if appropriate."

	replyLabel = "Character:"
)

const systemTemplateText = `
You are {{.Name}}, a {{.Gender}} anime character.
Traits: {{.Traits}}
Speech Style: {{.SpeechStyle}}
Catchphrase: "{{.Catchphrase}}"
Setting: {{.Setting}}

{{.Directive}}
`

var systemTemplate = template.Must(template.New("system").Parse(systemTemplateText))

type Config struct {
	Directive string `yaml:"directive" env:"PROMPT_DIRECTIVE"`
}

type Builder struct {
	directive string
}

func New(cfg *Config) *Builder {
	directive := DefaultDirective
	if cfg != nil && cfg.Directive != "" {
		directive = cfg.Directive
	}

	return &Builder{
		directive: directive,
	}
}

type systemData struct {
	Name        string
	Gender      string
	Traits      string
	SpeechStyle string
	Catchphrase string
	Setting     string
	Directive   string
}

func orDefault(value, def string) string {
	if value == "" {
		return def
	}

	return value
}

// Build renders the role-play system prompt for c. Empty fields fall back to defaults, nil is allowed.
func (b *Builder) Build(c *character.Character) string {
	if c == nil {
		c = &character.Character{}
	}

	data := &systemData{
		Name:        orDefault(c.Name, DefaultName),
		Gender:      orDefault(c.Gender, DefaultGender),
		Traits:      strings.Join(c.Traits, ", "),
		SpeechStyle: c.SpeechStyle,
		Catchphrase: c.Catchphrase,
		Setting:     c.AnimeSetting,
		Directive:   b.directive,
	}

	sb := &strings.Builder{}
	if err := systemTemplate.Execute(sb, data); err != nil {
		return err.Error()
	}

	return sb.String()
}

// Turn appends a single user turn to the system prompt, leaving the character's line open.
func Turn(system, message string) string {
	return system + "\n\nUser: " + message + "\n" + replyLabel
}

func CleanReply(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, replyLabel)

	return strings.TrimSpace(text)
}
