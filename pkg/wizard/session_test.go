package wizard

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/bonhomiee/formflow/pkg/manifest"
	"github.com/bonhomiee/formflow/pkg/upload"
)

type stubStrength struct{ score int }

func (s stubStrength) Score(string) int { return s.score }

type recordingRegistrar struct {
	calls    int
	lastForm string
	lastSnap map[string]any
	err      error
}

func (r *recordingRegistrar) Register(_ context.Context, formID string, snapshot map[string]any) error {
	r.calls++
	r.lastForm = formID
	r.lastSnap = snapshot
	return r.err
}

func twoStageForm() manifest.Form {
	return manifest.Form{
		ID: "test",
		Stages: []manifest.Stage{
			{
				Name: "General",
				Fields: []manifest.Field{
					{Name: "firstName", Label: "First Name", Required: true},
					{Name: "email", Label: "Email", Required: true,
						Checks: []manifest.Check{{Kind: manifest.CheckEmail}}},
					{Name: "password", Label: "Password", Kind: manifest.KindPassword, Required: true,
						Checks: []manifest.Check{{Kind: manifest.CheckPassword, Params: map[string]string{"names": "firstName"}}}},
					{Name: "confirmPassword", Label: "Re-Type Password", Kind: manifest.KindPassword, Required: true,
						Checks: []manifest.Check{{Kind: manifest.CheckConfirm, Params: map[string]string{"of": "password"}}}},
				},
			},
			{
				Name: "Details",
				Fields: []manifest.Field{
					{Name: "company", Label: "Company", Required: true},
				},
			},
		},
	}
}

func fillValidStage1(s *Session) {
	s.Set("firstName", "Grace")
	s.Set("email", "grace@example.com")
	s.Set("password", "Zr8@kqPm")
	s.Set("confirmPassword", "Zr8@kqPm")
}

func TestAdvanceBlockedWhenRequiredFieldEmpty(t *testing.T) {
	s, err := NewSession(twoStageForm(), WithStrengthOracle(stubStrength{score: 4}))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	s.Set("firstName", "Grace")
	if s.Advance() {
		t.Fatal("advance should be blocked with empty required fields")
	}
	if s.Stage() != 1 {
		t.Fatalf("stage changed on blocked advance: %d", s.Stage())
	}
	if s.Banner() == "" {
		t.Fatal("expected non-empty aggregate error")
	}
}

func TestAdvanceMovesForwardWhenStageValid(t *testing.T) {
	s, err := NewSession(twoStageForm(), WithStrengthOracle(stubStrength{score: 4}))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	fillValidStage1(s)
	if !s.Advance() {
		t.Fatalf("advance blocked unexpectedly: banner=%q email=%q password=%q",
			s.Banner(), s.FieldError("email"), s.FieldError("password"))
	}
	if s.Stage() != 2 || s.Banner() != "" {
		t.Fatalf("stage=%d banner=%q after valid advance", s.Stage(), s.Banner())
	}
}

func TestAdvanceSurfacesRuleFailureWithoutClearingValues(t *testing.T) {
	s, err := NewSession(twoStageForm(), WithStrengthOracle(stubStrength{score: 4}))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	fillValidStage1(s)
	s.Set("email", "broken@") // overwrite with an invalid value
	if s.Advance() {
		t.Fatal("advance should be blocked by rule failure")
	}
	if got := s.Store().String("email"); got != "broken@" {
		t.Fatalf("entered value cleared: %q", got)
	}
	if s.FieldError("email") == "" {
		t.Fatal("expected inline email error")
	}
}

func TestRetreatIsUnconditionalAndKeepsValues(t *testing.T) {
	s, err := NewSession(twoStageForm(), WithStrengthOracle(stubStrength{score: 4}))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	fillValidStage1(s)
	if !s.Advance() {
		t.Fatal("setup advance failed")
	}
	s.Set("company", "") // stage 2 invalid on purpose

	if !s.Retreat() {
		t.Fatal("retreat should always succeed above stage 1")
	}
	if s.Stage() != 1 {
		t.Fatalf("expected stage 1, got %d", s.Stage())
	}
	if s.Banner() != "" {
		t.Fatal("retreat must clear the stage banner")
	}
	if got := s.Store().String("firstName"); got != "Grace" {
		t.Fatalf("retreat altered field values: %q", got)
	}

	if s.Retreat() {
		t.Fatal("retreat at stage 1 should be a no-op")
	}
}

func TestSubmitFinalOnlyAtTerminalStage(t *testing.T) {
	s, err := NewSession(twoStageForm(), WithStrengthOracle(stubStrength{score: 4}))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	if _, err := s.SubmitFinal(context.Background()); !errors.Is(err, ErrNotTerminal) {
		t.Fatalf("expected ErrNotTerminal, got %v", err)
	}
}

func TestSubmitFinalCallsRegistrarExactlyOnce(t *testing.T) {
	reg := &recordingRegistrar{}
	s, err := NewSession(twoStageForm(),
		WithStrengthOracle(stubStrength{score: 4}),
		WithRegistrar(reg),
	)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	fillValidStage1(s)
	s.Advance()
	s.Set("company", "Bonhomiee Travel")

	result, err := s.SubmitFinal(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !result.Registered || !result.NavigateHome {
		t.Fatalf("unexpected result: %+v", result)
	}
	if reg.calls != 1 {
		t.Fatalf("registrar called %d times", reg.calls)
	}
	if reg.lastForm != "test" {
		t.Fatalf("unexpected form id %q", reg.lastForm)
	}
	if reg.lastSnap["company"] != "Bonhomiee Travel" {
		t.Fatalf("snapshot missing entered value: %#v", reg.lastSnap)
	}
}

func TestSubmitFinalBlockedByValidationDoesNotCallRegistrar(t *testing.T) {
	reg := &recordingRegistrar{}
	s, err := NewSession(twoStageForm(),
		WithStrengthOracle(stubStrength{score: 4}),
		WithRegistrar(reg),
	)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	fillValidStage1(s)
	s.Advance()

	result, err := s.SubmitFinal(context.Background())
	if err != nil {
		t.Fatalf("blocked submit should not error: %v", err)
	}
	if result.Registered || result.Banner == "" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if reg.calls != 0 {
		t.Fatalf("registrar must not be called on blocked submit, got %d calls", reg.calls)
	}
}

func TestSubmitFinalRegistrarFailureSurfacesBanner(t *testing.T) {
	reg := &recordingRegistrar{err: errors.New("backend down")}
	s, err := NewSession(twoStageForm(),
		WithStrengthOracle(stubStrength{score: 4}),
		WithRegistrar(reg),
	)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	fillValidStage1(s)
	s.Advance()
	s.Set("company", "Bonhomiee Travel")

	result, err := s.SubmitFinal(context.Background())
	if err == nil {
		t.Fatal("expected registrar error surfaced")
	}
	if result.Registered || result.NavigateHome {
		t.Fatalf("unexpected result on failure: %+v", result)
	}
	if s.Banner() == "" {
		t.Fatal("expected failure banner")
	}

	// The in-flight guard must have been released.
	if _, err := s.SubmitFinal(context.Background()); errors.Is(err, ErrSubmitInFlight) {
		t.Fatal("in-flight guard not released after settle")
	}
}

func TestSubmitFinalGuardsOverlappingSubmissions(t *testing.T) {
	oneStage := manifest.Form{
		ID: "one",
		Stages: []manifest.Stage{{
			Name:   "Only",
			Fields: []manifest.Field{{Name: "email", Label: "Email", Required: true, Checks: []manifest.Check{{Kind: manifest.CheckEmail}}}},
		}},
	}

	var s *Session
	var second error
	reentrant := RegistrarFunc(func(ctx context.Context, _ string, _ map[string]any) error {
		_, second = s.SubmitFinal(ctx)
		return nil
	})

	s, err := NewSession(oneStage, WithRegistrar(reentrant))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	s.Set("email", "a@b.co")

	if _, err := s.SubmitFinal(context.Background()); err != nil {
		t.Fatalf("outer submit: %v", err)
	}
	if !errors.Is(second, ErrSubmitInFlight) {
		t.Fatalf("expected inner submit rejected by in-flight guard, got %v", second)
	}
}

func TestConditionallyRequiredTaxFields(t *testing.T) {
	form := manifest.Form{
		ID: "docs",
		Stages: []manifest.Stage{{
			Name: "Documents",
			Fields: []manifest.Field{
				{Name: "taxDocType", Label: "Tax Document Type", Kind: manifest.KindSelect,
					Required: true, Options: []string{"GST", "PAN", "VAT"},
					Resets: []string{"panTaxId", "taxRegistrationDoc"}},
				{Name: "panTaxId", Label: "Tax Number", RequiredWhen: "taxDocType",
					Checks: []manifest.Check{{Kind: manifest.CheckTaxID, Params: map[string]string{"typeField": "taxDocType"}}}},
				{Name: "taxRegistrationDoc", Label: "Tax Registration Document", Kind: manifest.KindFile,
					RequiredWhen: "taxDocType",
					Upload:       &manifest.UploadConfig{AllowedTypes: []string{"application/pdf"}, MaxSizeMB: 15}},
			},
		}},
	}
	reg := &recordingRegistrar{}
	s, err := NewSession(form, WithRegistrar(reg))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	s.Set("taxDocType", "PAN")
	result, err := s.SubmitFinal(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Registered {
		t.Fatal("submit must be blocked while dependent tax fields are empty")
	}

	s.Set("panTaxId", "ABCDE1234F")
	if msg := s.Attach("taxRegistrationDoc", upload.Document{
		Filename: "pan.pdf", MIME: "application/pdf", Size: 1024,
	}); msg != "" {
		t.Fatalf("attach rejected: %q", msg)
	}

	result, err = s.SubmitFinal(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !result.Registered {
		t.Fatalf("expected registration, banner=%q", s.Banner())
	}
	if reg.calls != 1 {
		t.Fatalf("registrar called %d times", reg.calls)
	}
}

func TestSetResetsDependentFields(t *testing.T) {
	form := manifest.Form{
		ID: "docs",
		Stages: []manifest.Stage{{
			Name: "Documents",
			Fields: []manifest.Field{
				{Name: "taxDocType", Label: "Tax Document Type", Kind: manifest.KindSelect,
					Required: true, Options: []string{"GST", "PAN"},
					Resets: []string{"panTaxId", "taxRegistrationDoc"}},
				{Name: "panTaxId", Label: "Tax Number", RequiredWhen: "taxDocType"},
				{Name: "taxRegistrationDoc", Label: "Tax Registration Document", Kind: manifest.KindFile,
					RequiredWhen: "taxDocType",
					Upload:       &manifest.UploadConfig{AllowedTypes: []string{"application/pdf"}, MaxSizeMB: 15}},
			},
		}},
	}
	s, err := NewSession(form)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	s.Set("taxDocType", "PAN")
	s.Set("panTaxId", "ABCDE1234F")
	s.Attach("taxRegistrationDoc", upload.Document{Filename: "pan.pdf", MIME: "application/pdf", Size: 10})

	s.Set("taxDocType", "GST")
	if got := s.Store().String("panTaxId"); got != "" {
		t.Fatalf("expected dependent tax id reset, got %q", got)
	}
	if _, ok := s.Store().Document("taxRegistrationDoc"); ok {
		t.Fatal("expected dependent document detached")
	}
}

func TestDerivedUsernameFollowsSourceField(t *testing.T) {
	form := manifest.Form{
		ID: "agent",
		Stages: []manifest.Stage{{
			Name: "General",
			Fields: []manifest.Field{
				{Name: "agencyName", Label: "Agency Name", Required: true},
				{Name: "username", Label: "Username", DeriveFrom: "agencyName"},
			},
		}},
	}
	s, err := NewSession(form)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	s.Set("agencyName", "Wander Lust Travels")
	got := s.Store().String("username")
	if !regexp.MustCompile(`^wanderlusttravels@A[0-9]{3}$`).MatchString(got) {
		t.Fatalf("unexpected derived username %q", got)
	}

	s.Set("agencyName", "")
	if got := s.Store().String("username"); got != "" {
		t.Fatalf("expected derived username cleared, got %q", got)
	}
}

func TestAttachRejectsBeforeStoring(t *testing.T) {
	form := manifest.Form{
		ID: "docs",
		Stages: []manifest.Stage{{
			Name: "Documents",
			Fields: []manifest.Field{{
				Name: "tradeLicense", Label: "Trade License", Kind: manifest.KindFile, Required: true,
				Upload: &manifest.UploadConfig{AllowedTypes: []string{"application/pdf"}, MaxSizeMB: 5},
			}},
		}},
	}
	s, err := NewSession(form)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	msg := s.Attach("tradeLicense", upload.Document{Filename: "big.pdf", MIME: "application/pdf", Size: 10 * 1024 * 1024})
	if msg == "" {
		t.Fatal("expected oversized file rejected")
	}
	if _, ok := s.Store().Document("tradeLicense"); ok {
		t.Fatal("rejected document must never be attached")
	}
	if s.FieldError("tradeLicense") == "" {
		t.Fatal("expected rejection surfaced on the upload control")
	}
}

func TestMinSelectionCheckBlocksAdvance(t *testing.T) {
	form := manifest.Form{
		ID: "services",
		Stages: []manifest.Stage{
			{
				Name: "Offering",
				Fields: []manifest.Field{
					{Name: "serviceTypes", Label: "Service Type", Kind: manifest.KindMultiSelect,
						Required: true,
						Options:  []string{"Hotel", "Flight", "Transport"},
						Checks: []manifest.Check{{Kind: manifest.CheckMinSelection,
							Params: map[string]string{"min": "2"}}}},
				},
			},
			{
				Name:   "Review",
				Fields: []manifest.Field{{Name: "notes", Label: "Notes"}},
			},
		},
	}
	s, err := NewSession(form)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	s.Toggle("serviceTypes", "Hotel")
	if s.Advance() {
		t.Fatal("advance should be blocked below the selection minimum")
	}
	if s.Banner() != "Please select at least 2 options." {
		t.Fatalf("unexpected banner %q", s.Banner())
	}

	s.Toggle("serviceTypes", "Flight")
	if !s.Advance() {
		t.Fatalf("advance blocked with enough selections: %q", s.Banner())
	}
}

func TestRequiredCheckSurfacesInlineMessage(t *testing.T) {
	form := manifest.Form{
		ID: "corp",
		Stages: []manifest.Stage{
			{
				Name: "General",
				Fields: []manifest.Field{
					{Name: "organisationId", Label: "Organisation ID", Required: true,
						Checks: []manifest.Check{{Kind: manifest.CheckRequired}}},
				},
			},
		},
	}
	s, err := NewSession(form)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	s.Set("organisationId", "  ")
	if got := s.FieldError("organisationId"); got != "Organisation ID is required." {
		t.Fatalf("unexpected inline message %q", got)
	}

	s.Set("organisationId", "ORG-42")
	if got := s.FieldError("organisationId"); got != "" {
		t.Fatalf("error not cleared after fill: %q", got)
	}
}
