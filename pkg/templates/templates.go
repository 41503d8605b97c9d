// Package templates holds the bot's scripted copy: suggestion cards,
// confirmations and the multi-message narratives pushed after a response.
// All templates are parsed at construction time so a broken or unknown
// key is a startup failure, not a runtime surprise.
package templates

import (
	"bytes"
	"fmt"
	"text/template"
)

// Template keys.
const (
	KeySuggestionCard      = "suggestion_card"
	KeyMatchRequestCard    = "match_request_card"
	KeySuggestionAccept    = "suggestion_accept_confirmation"
	KeyMatchAccept         = "match_accept_confirmation"
	KeyRejectionNarrative  = "rejection_narrative"
	KeyGroupIntroNarrative = "group_intro_narrative"
	KeyMatchNotification   = "match_notification"
)

// Vars are the substitution variables for a render.
type Vars map[string]string

// Rendered is the output of a render: one or more message texts plus an
// optional image attachment.
type Rendered struct {
	Texts    []string
	ImageURL string
}

type definition struct {
	texts    []string
	imageURL string
}

var definitions = map[string]definition{
	KeySuggestionCard: {
		texts: []string{
			"Hi {{.UserName}}! We found someone you may want to connect with: {{.SuggestedName}} ({{.Category}}). Their strengths: {{.Strengths}}. Would you like an introduction?",
		},
	},
	KeyMatchRequestCard: {
		texts: []string{
			"{{.UserName}} would like to connect with you, {{.SuggestedName}}. Are you interested in a match?",
		},
	},
	KeySuggestionAccept: {
		texts: []string{
			"Great choice! We have sent your request to {{.SuggestedName}} and will let you know as soon as they respond.",
		},
	},
	KeyMatchAccept: {
		texts: []string{
			"Congratulations! You and {{.SuggestedName}} are now connected. We opened a group chat so you can start talking.",
		},
	},
	KeyRejectionNarrative: {
		texts: []string{
			"Understood. We will not suggest {{.SuggestedName}} to you again.",
			"Every answer helps us fine-tune who we introduce you to next.",
			"We will keep looking for connections that fit you better!",
		},
		imageURL: "https://cdn.comy.io/assets/bot/keep-looking.png",
	},
	KeyGroupIntroNarrative: {
		texts: []string{
			"Welcome {{.UserName}} and {{.SuggestedName}}! This space is yours to get acquainted.",
			"{{.UserName}} works in {{.Category}}. {{.SuggestedName}}, feel free to share what you are working on.",
			"Break the ice with a short introduction. We will stay out of your way from here.",
		},
	},
	KeyMatchNotification: {
		texts: []string{
			"Good news, {{.SuggestedName}}: {{.UserName}} accepted your connection request. Check your new group chat!",
		},
	},
}

// Registry renders the bot's scripted messages.
type Registry struct {
	parsed map[string][]*template.Template
	images map[string]string
}

// NewRegistry parses every built-in template. An invalid template is a
// configuration error and fails construction.
func NewRegistry() (*Registry, error) {
	r := &Registry{
		parsed: make(map[string][]*template.Template),
		images: make(map[string]string),
	}
	for key, def := range definitions {
		for i, text := range def.texts {
			tmpl, err := template.New(fmt.Sprintf("%s#%d", key, i)).Parse(text)
			if err != nil {
				return nil, fmt.Errorf("failed to parse template %q: %v", key, err)
			}
			r.parsed[key] = append(r.parsed[key], tmpl)
		}
		r.images[key] = def.imageURL
	}
	return r, nil
}

// Render substitutes vars into every text of the keyed template. An
// unknown key is a configuration error.
func (r *Registry) Render(key string, vars Vars) (*Rendered, error) {
	tmpls, ok := r.parsed[key]
	if !ok {
		return nil, fmt.Errorf("unknown template key %q", key)
	}

	out := &Rendered{ImageURL: r.images[key]}
	for _, tmpl := range tmpls {
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, vars); err != nil {
			return nil, fmt.Errorf("failed to render template %q: %v", key, err)
		}
		out.Texts = append(out.Texts, buf.String())
	}
	return out, nil
}
