package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/bonhomiee/formflow/pkg/manifest"
	"github.com/bonhomiee/formflow/pkg/oracles/phone"
	"github.com/bonhomiee/formflow/pkg/oracles/strength"
	"github.com/bonhomiee/formflow/pkg/registrar"
	"github.com/bonhomiee/formflow/pkg/wizard"
)

func main() {
	formID := flag.String("form", manifest.FormCustomer, "form manifest id to run")
	manifestDir := flag.String("manifests", "", "directory of manifest files (embedded set if empty)")
	output := flag.String("output", "", "snapshot output file (stdout if empty)")
	flag.Parse()

	forms, err := loadForms(*manifestDir)
	if err != nil {
		log.Fatalf("Failed to load manifests: %v", err)
	}

	form, ok := forms.Form(strings.TrimSpace(*formID))
	if !ok {
		log.Fatalf("Unknown form %q; available: %s", *formID, strings.Join(forms.IDs(), ", "))
	}

	session, err := wizard.NewSession(form,
		wizard.WithStrengthOracle(strength.New()),
		wizard.WithPhoneOracle(phone.New()),
		wizard.WithRegistrar(&registrar.Simulated{}),
	)
	if err != nil {
		log.Fatalf("Failed to start session: %v", err)
	}

	out := os.Stdout
	if *output != "" {
		file, err := os.Create(*output)
		if err != nil {
			log.Fatalf("Failed to open output: %v", err)
		}
		defer file.Close()
		out = file
	}

	if err := newRunner(newSurveyDriver(), session, out).run(context.Background()); err != nil {
		if errors.Is(err, ErrAborted) {
			fmt.Fprintln(os.Stderr, "Aborted.")
			os.Exit(1)
		}
		log.Fatalf("Session failed: %v", err)
	}
}

func loadForms(dir string) (*manifest.Set, error) {
	if strings.TrimSpace(dir) == "" {
		return manifest.Default()
	}
	return manifest.LoadFS(os.DirFS(dir))
}
