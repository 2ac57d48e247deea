// Package view renders the liquid templates for mails and pages.
package view

import (
	"embed"
	"fmt"
	"sync"

	"github.com/osteele/liquid"
)

//go:embed templates/*.liquid
var files embed.FS

// Problem is the data for a problem mail
type Problem struct {
	Title          string
	Difficulty     string
	URL            string
	UnsubscribeURL string
}

// Renderer parses templates once and renders them by name
type Renderer struct {
	engine *liquid.Engine

	mu    sync.RWMutex
	cache map[string]*liquid.Template
}

// NewRenderer creates a renderer over the embedded templates
func NewRenderer() *Renderer {
	return &Renderer{
		engine: liquid.NewEngine(),
		cache:  make(map[string]*liquid.Template),
	}
}

// ProblemHTML renders the HTML body of a problem mail
func (r *Renderer) ProblemHTML(p Problem) (string, error) {
	return r.render("problem.html.liquid", problemBindings(p))
}

// ProblemText renders the plain text body of a problem mail
func (r *Renderer) ProblemText(p Problem) (string, error) {
	return r.render("problem.txt.liquid", problemBindings(p))
}

// UnsubscribePage renders the result page shown after an unsubscribe link
func (r *Renderer) UnsubscribePage(message string, success bool) (string, error) {
	return r.render("unsubscribe.html.liquid", liquid.Bindings{
		"message": message,
		"success": success,
	})
}

func problemBindings(p Problem) liquid.Bindings {
	return liquid.Bindings{
		"title":           p.Title,
		"difficulty":      p.Difficulty,
		"url":             p.URL,
		"unsubscribe_url": p.UnsubscribeURL,
	}
}

func (r *Renderer) render(name string, b liquid.Bindings) (string, error) {
	tpl, err := r.template(name)
	if err != nil {
		return "", err
	}
	out, serr := tpl.RenderString(b)
	if serr != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, serr)
	}
	return out, nil
}

func (r *Renderer) template(name string) (*liquid.Template, error) {
	r.mu.RLock()
	tpl, ok := r.cache[name]
	r.mu.RUnlock()
	if ok {
		return tpl, nil
	}

	src, err := files.ReadFile("templates/" + name)
	if err != nil {
		return nil, fmt.Errorf("template %s not found: %w", name, err)
	}
	tpl, serr := r.engine.ParseTemplate(src)
	if serr != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, serr)
	}

	r.mu.Lock()
	r.cache[name] = tpl
	r.mu.Unlock()
	return tpl, nil
}
