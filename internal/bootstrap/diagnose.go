package bootstrap

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/aretw0/intake/internal/config"
	"github.com/aretw0/intake/pkg/domain"
)

// Check is one line of a diagnostic report.
type Check struct {
	Name   string
	OK     bool
	Detail string
}

// Report is the outcome of Diagnose.
type Report struct {
	Checks []Check
}

// Failed reports whether any check failed.
func (r Report) Failed() bool {
	for _, c := range r.Checks {
		if !c.OK {
			return true
		}
	}
	return false
}

// Write renders the report for humans.
func (r Report) Write(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "=== intake diagnostics ==="); err != nil {
		return err
	}
	for _, c := range r.Checks {
		mark := "✅"
		if !c.OK {
			mark = "❌"
		}
		line := fmt.Sprintf("%s %s", mark, c.Name)
		if c.Detail != "" {
			line += ": " + c.Detail
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "=== end of diagnostics ===")
	return err
}

// BotIdentity is what Telegram reports for the configured token.
type BotIdentity struct {
	ID       int64
	Username string
}

// Probes reach the external services. Nil probes are skipped.
type Probes struct {
	Telegram func(ctx context.Context, token string) (BotIdentity, error)
	Sheets   func(ctx context.Context, bundle domain.CredentialBundle) error
}

// Diagnose inspects the environment and probes every external dependency.
// It never stops at the first failure.
func Diagnose(ctx context.Context, cfg *config.Config, probes Probes) Report {
	var r Report
	add := func(name string, ok bool, detail string) {
		r.Checks = append(r.Checks, Check{Name: name, OK: ok, Detail: detail})
	}

	if cfg.Token == "" {
		add("Telegram token", false, "TOKEN is not set")
	} else {
		add("Telegram token", true, MaskToken(cfg.Token))
		if probes.Telegram != nil {
			id, err := probes.Telegram(ctx, cfg.Token)
			if err != nil {
				add("Telegram API", false, err.Error())
			} else {
				add("Telegram API", true, "@"+id.Username+" (id "+strconv.FormatInt(id.ID, 10)+")")
			}
		}
	}

	bundle, err := ResolveCredentials(cfg)
	if err != nil {
		add("Google credentials", false, err.Error())
		return r
	}
	add("Google credentials", true, "from "+bundle.Source)
	add("Google project", bundle.ProjectID != "", orUnknown(bundle.ProjectID))
	add("Service account", bundle.ClientEmail != "", orUnknown(bundle.ClientEmail))

	if probes.Sheets != nil {
		target := cfg.SheetName
		if cfg.SheetID != "" {
			target = cfg.SheetID
		}
		if err := probes.Sheets(ctx, *bundle); err != nil {
			add("Google Sheets", false, err.Error())
		} else {
			add("Google Sheets", true, "spreadsheet "+target+" is reachable")
		}
	}
	return r
}

// MaskToken keeps the first ten characters of a secret.
func MaskToken(token string) string {
	const visible = 10
	if len(token) <= visible {
		return "***"
	}
	return token[:visible] + "..."
}

func orUnknown(s string) string {
	if s == "" {
		return "not set"
	}
	return s
}
