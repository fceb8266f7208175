package comms

import "testing"

func TestRenderFilters(t *testing.T) {
	r := NewRenderer()

	tests := []struct {
		name string
		tpl  string
		vars map[string]interface{}
		want string
	}{
		{
			"plain variable",
			"Hi {{first_name}}",
			map[string]interface{}{"first_name": "Jane"},
			"Hi Jane",
		},
		{
			"default filter on missing value",
			`Hi {{ first_name | default: "there" }}`,
			map[string]interface{}{},
			"Hi there",
		},
		{
			"capitalize",
			"{{ name | capitalize }}",
			map[string]interface{}{"name": "jANE"},
			"Jane",
		},
		{
			"currency",
			"{{ value | currency }}",
			map[string]interface{}{"value": 1234.5},
			"$1234.50",
		},
		{
			"mask email",
			"{{ email | mask_email }}",
			map[string]interface{}{"email": "jane.doe@example.com"},
			"ja***@example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Render("", tt.tpl, tt.vars)
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderBrokenTemplateReturnsOriginal(t *testing.T) {
	r := NewRenderer()
	tpl := "Hello {% if %}"
	if got := r.Render("", tpl, nil); got != tpl {
		t.Errorf("broken template should degrade to literal content, got %q", got)
	}
}

func TestRenderCache(t *testing.T) {
	r := NewRenderer()
	first := r.Render("k1", "Hi {{name}}", map[string]interface{}{"name": "A"})
	second := r.Render("k1", "ignored after cache", map[string]interface{}{"name": "B"})
	if first != "Hi A" || second != "Hi B" {
		t.Errorf("cached render mismatch: %q, %q", first, second)
	}
}
