package html_test

import (
	"strings"
	"testing"

	theme "github.com/goliatone/go-theme"

	"github.com/bonhomiee/formflow/pkg/manifest"
	"github.com/bonhomiee/formflow/pkg/render/html"
	"github.com/bonhomiee/formflow/pkg/upload"
	"github.com/bonhomiee/formflow/pkg/wizard"
)

func testForm() manifest.Form {
	return manifest.Form{
		ID:    "customer",
		Title: "Customer Signup",
		Stages: []manifest.Stage{
			{
				Name: "Account",
				Fields: []manifest.Field{
					{
						Name:     "email",
						Label:    "Email",
						Required: true,
						Checks:   []manifest.Check{{Kind: manifest.CheckEmail}},
					},
					{
						Name:    "country",
						Label:   "Country",
						Kind:    manifest.KindSelect,
						Options: []string{"India", "Portugal"},
					},
				},
			},
			{
				Name: "Review",
				Fields: []manifest.Field{
					{Name: "notes", Label: "Notes"},
				},
			},
		},
	}
}

func newSession(t *testing.T) *wizard.Session {
	t.Helper()
	session, err := wizard.NewSession(testForm())
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return session
}

func TestRenderStagePage(t *testing.T) {
	session := newSession(t)
	session.Set("email", "ada@example.com")

	renderer, err := html.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	page, err := renderer.RenderStage(session)
	if err != nil {
		t.Fatalf("render stage: %v", err)
	}

	for _, want := range []string{
		"<title>Customer Signup</title>",
		"Step 1 of 2: Account",
		`value="ada@example.com"`,
		`<span class="required">*</span>`,
		`<option value="Portugal"`,
		`--brand: #00AFEF;`,
		`data-theme="bonhomiee"`,
	} {
		if !strings.Contains(page, want) {
			t.Fatalf("page missing %q\n%s", want, page)
		}
	}
}

func TestRenderStageShowsInlineError(t *testing.T) {
	session := newSession(t)
	session.Set("email", "not-an-email")

	renderer, err := html.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	page, err := renderer.RenderStage(session)
	if err != nil {
		t.Fatalf("render stage: %v", err)
	}

	if !strings.Contains(page, `<span class="field-error">`) {
		t.Fatalf("expected inline error markup\n%s", page)
	}
	if !strings.Contains(page, "has-error") {
		t.Fatalf("expected has-error class\n%s", page)
	}
}

func TestRenderStageShowsBanner(t *testing.T) {
	session := newSession(t)
	if session.Advance() {
		t.Fatal("advance should fail with mandatory field empty")
	}

	renderer, err := html.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	page, err := renderer.RenderStage(session)
	if err != nil {
		t.Fatalf("render stage: %v", err)
	}

	if !strings.Contains(page, "All mandatory fields must be filled") {
		t.Fatalf("expected stage banner\n%s", page)
	}
}

func TestRenderStageTerminalActions(t *testing.T) {
	session := newSession(t)
	session.Set("email", "ada@example.com")
	if !session.Advance() {
		t.Fatalf("advance: banner %q", session.Banner())
	}

	renderer, err := html.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	page, err := renderer.RenderStage(session)
	if err != nil {
		t.Fatalf("render stage: %v", err)
	}

	if !strings.Contains(page, `name="register"`) {
		t.Fatalf("expected register action on terminal stage\n%s", page)
	}
	if !strings.Contains(page, `name="back"`) {
		t.Fatalf("expected back action past stage one\n%s", page)
	}
}

func TestRenderStageListsBatchDocuments(t *testing.T) {
	form := manifest.Form{
		ID:    "supplier",
		Title: "Supplier Registration",
		Stages: []manifest.Stage{
			{
				Name: "Documents",
				Fields: []manifest.Field{
					{
						Name:  "otherDocs",
						Label: "Other Documents",
						Kind:  manifest.KindBatch,
						Upload: &manifest.UploadConfig{
							AllowedTypes: []string{"application/pdf"},
							MaxSizeMB:    15,
							MaxCount:     5,
						},
					},
				},
			},
		},
	}
	session, err := wizard.NewSession(form)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if msg := session.AttachBatch("otherDocs", "Insurance", []upload.Document{
		{Filename: "policy.pdf", MIME: "application/pdf", Size: 1024},
	}); msg != "" {
		t.Fatalf("attach batch: %q", msg)
	}

	renderer, err := html.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	page, err := renderer.RenderStage(session)
	if err != nil {
		t.Fatalf("render stage: %v", err)
	}

	if !strings.Contains(page, "Insurance: policy.pdf") {
		t.Fatalf("expected batch entry listed\n%s", page)
	}
}

func TestRenderStageVariantTokens(t *testing.T) {
	session := newSession(t)
	session.Set("email", "ada@example.com")

	renderer, err := html.New(html.WithThemeSelection(&theme.Selection{
		Theme:    "bonhomiee",
		Variant:  "dark",
		Manifest: html.DefaultManifest(),
	}))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	page, err := renderer.RenderStage(session)
	if err != nil {
		t.Fatalf("render stage: %v", err)
	}

	if !strings.Contains(page, `--surface: #1F2933;`) {
		t.Fatalf("expected dark surface token\n%s", page)
	}
	if !strings.Contains(page, `data-theme-variant="dark"`) {
		t.Fatalf("expected variant attribute\n%s", page)
	}
}
