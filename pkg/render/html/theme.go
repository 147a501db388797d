package html

import (
	"encoding/json"
	"sort"
	"strings"

	theme "github.com/goliatone/go-theme"
)

// Product palette baked into the default theme manifest.
const (
	tokenBrand   = "#00AFEF"
	tokenDanger  = "#E62800"
	tokenWarning = "#FBAE30"
	tokenInk     = "#1F2933"
	tokenSurface = "#FFFFFF"
)

// DefaultManifest returns the stock Bonhomiee theme manifest with a dark
// variant that only swaps the surface tokens.
func DefaultManifest() *theme.Manifest {
	return &theme.Manifest{
		Name:    "bonhomiee",
		Version: "1.0.0",
		Tokens: map[string]string{
			"brand":   tokenBrand,
			"danger":  tokenDanger,
			"warning": tokenWarning,
			"ink":     tokenInk,
			"surface": tokenSurface,
		},
		Variants: map[string]theme.Variant{
			"dark": {
				Tokens: map[string]string{
					"ink":     "#E4E7EB",
					"surface": "#1F2933",
				},
			},
		},
	}
}

// DefaultSelection resolves the base variant of the default manifest.
func DefaultSelection() *theme.Selection {
	return &theme.Selection{
		Theme:    "bonhomiee",
		Manifest: DefaultManifest(),
	}
}

type rendererTheme struct {
	Name    string
	Variant string
	Tokens  map[string]string
	CSSVars map[string]string

	CSSVarsStyle string
	JSON         string
}

func buildThemeContext(selection *theme.Selection) rendererTheme {
	if selection == nil {
		return rendererTheme{}
	}
	ctx := rendererTheme{
		Name:    selection.Theme,
		Variant: selection.Variant,
		Tokens:  selectionTokens(selection),
	}
	ctx.CSSVars = make(map[string]string, len(ctx.Tokens))
	for name, value := range ctx.Tokens {
		ctx.CSSVars["--"+name] = value
	}
	ctx.CSSVarsStyle = cssVarsStyle(ctx.CSSVars)
	ctx.JSON = themeJSON(ctx)
	return ctx
}

// selectionTokens merges base manifest tokens with the selected variant's
// overrides. Variant tokens win.
func selectionTokens(selection *theme.Selection) map[string]string {
	if selection.Manifest == nil {
		return nil
	}
	merged := make(map[string]string, len(selection.Manifest.Tokens))
	for name, value := range selection.Manifest.Tokens {
		merged[name] = value
	}
	if selection.Variant != "" {
		if variant, ok := selection.Manifest.Variants[selection.Variant]; ok {
			for name, value := range variant.Tokens {
				merged[name] = value
			}
		}
	}
	return merged
}

func cssVarsStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(":root {\n")
	for _, key := range keys {
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(vars[key])
		b.WriteString(";\n")
	}
	b.WriteString("}")
	return b.String()
}

func themeJSON(cfg rendererTheme) string {
	payload := struct {
		Name    string            `json:"name,omitempty"`
		Variant string            `json:"variant,omitempty"`
		Tokens  map[string]string `json:"tokens,omitempty"`
		CSSVars map[string]string `json:"cssVars,omitempty"`
	}{
		Name:    cfg.Name,
		Variant: cfg.Variant,
		Tokens:  cfg.Tokens,
		CSSVars: cfg.CSSVars,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	return string(data)
}
