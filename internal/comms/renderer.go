package comms

import (
	"fmt"
	"strings"
	"sync"

	"github.com/osteele/liquid"

	"github.com/careline/intake-platform/internal/pkg/logger"
)

// Renderer personalizes template text with Liquid. Parsed templates are
// cached per template ID so repeated sends skip recompilation.
type Renderer struct {
	engine *liquid.Engine
	cache  sync.Map // map[string]*liquid.Template
}

// NewRenderer creates a renderer with the platform's custom filters.
func NewRenderer() *Renderer {
	r := &Renderer{engine: liquid.NewEngine()}
	r.registerFilters()
	return r
}

func (r *Renderer) registerFilters() {
	// Fallback value: {{ first_name | default: "there" }}
	r.engine.RegisterFilter("default", func(value interface{}, fallback string) interface{} {
		if value == nil {
			return fallback
		}
		s := fmt.Sprintf("%v", value)
		if s == "" || s == "<nil>" {
			return fallback
		}
		return value
	})

	// Capitalize first letter: {{ name | capitalize }}
	r.engine.RegisterFilter("capitalize", func(s string) string {
		if len(s) == 0 {
			return s
		}
		return strings.ToUpper(string(s[0])) + strings.ToLower(s[1:])
	})

	// Case value as currency: {{ case_value | currency }}
	r.engine.RegisterFilter("currency", func(value interface{}) string {
		switch v := value.(type) {
		case float64:
			return fmt.Sprintf("$%.2f", v)
		case int:
			return fmt.Sprintf("$%.2f", float64(v))
		case int64:
			return fmt.Sprintf("$%.2f", float64(v))
		default:
			return fmt.Sprintf("%v", value)
		}
	})

	// Mask email for on-screen confirmation copy: {{ email | mask_email }}
	r.engine.RegisterFilter("mask_email", func(email string) string {
		parts := strings.Split(email, "@")
		if len(parts) != 2 {
			return email
		}
		if len(parts[0]) <= 2 {
			return parts[0] + "***@" + parts[1]
		}
		return parts[0][:2] + "***@" + parts[1]
	})
}

// Render fills templateStr with vars. On parse or render errors the
// original text is returned so a broken template degrades to literal
// content rather than a dropped message.
func (r *Renderer) Render(cacheKey, templateStr string, vars map[string]interface{}) string {
	if cacheKey != "" {
		if cached, ok := r.cache.Load(cacheKey); ok {
			out, err := cached.(*liquid.Template).RenderString(vars)
			if err == nil {
				return out
			}
			logger.Warn("template render failed", "template", cacheKey, "error", err.Error())
			return templateStr
		}
	}

	tpl, err := r.engine.ParseString(templateStr)
	if err != nil {
		logger.Warn("template parse failed", "template", cacheKey, "error", err.Error())
		return templateStr
	}
	if cacheKey != "" {
		r.cache.Store(cacheKey, tpl)
	}

	out, err := tpl.RenderString(vars)
	if err != nil {
		logger.Warn("template render failed", "template", cacheKey, "error", err.Error())
		return templateStr
	}
	return out
}

// Invalidate drops a cached template, for use after template updates.
func (r *Renderer) Invalidate(cacheKey string) {
	r.cache.Delete(cacheKey)
}
