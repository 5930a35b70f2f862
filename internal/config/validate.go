package config

import (
	"fmt"
	"net/url"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate trims and dedups list fields, then checks the config
// for values that would break a run (errors) or probably surprise the user
// (warnings).
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	out := cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			if seen[x] {
				continue
			}
			seen[x] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.Sponsorship.ReferenceFiles = trimList(out.Sponsorship.ReferenceFiles)

	if out.App.Port <= 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}

	if strings.TrimSpace(out.Source.URL) == "" {
		res.addErr("source.url is required")
	} else if u, err := url.Parse(out.Source.URL); err != nil || u.Scheme == "" || u.Host == "" {
		res.addErr("source.url must be an absolute http(s) URL")
	}
	if out.Source.TimeoutSeconds <= 0 {
		res.addErr("source.timeout_seconds must be > 0")
	}

	if out.Sponsorship.FuzzyThreshold < 0 || out.Sponsorship.FuzzyThreshold > 100 {
		res.addErr("sponsorship.fuzzy_threshold must be 0..100")
	} else if out.Sponsorship.FuzzyThreshold < 70 {
		res.addWarn("sponsorship.fuzzy_threshold is low (%d); expect many false positives.", out.Sponsorship.FuzzyThreshold)
	}
	if out.Sponsorship.MinCases < 0 {
		res.addErr("sponsorship.min_cases must be >= 0")
	}
	if len(out.Sponsorship.ReferenceFiles) == 0 {
		res.addWarn("sponsorship.reference_files is empty; every job will be tagged \"No record found\".")
	}

	if out.Polling.ScrapeSeconds <= 0 {
		res.addErr("polling.scrape_seconds must be > 0")
	} else if out.Polling.ScrapeSeconds < 300 {
		res.addWarn("polling.scrape_seconds is very low (%d); the source rarely changes more than a few times a day.", out.Polling.ScrapeSeconds)
	}
	if out.Polling.RetentionDays < 0 {
		res.addErr("polling.retention_days must be >= 0 (0 disables retention)")
	}

	return out, res
}
