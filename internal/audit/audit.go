// # internal/audit/audit.go
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"nuxtscan/internal/output"
	"nuxtscan/internal/util"
)

// Advisory is one known vulnerability for a package version.
type Advisory struct {
	ID       string `json:"id"`
	Severity string `json:"severity"`
	Title    string `json:"title"`
}

// AdvisoryClient is the capability the auditor depends on. The HTTP client
// below satisfies it against a real service; tests inject an in-memory one.
type AdvisoryClient interface {
	Advisories(ctx context.Context, name, version string) ([]Advisory, error)
}

// Auditor cross-references manifest entries against observed import sites
// and, in vuln mode, against the advisory service.
type Auditor struct {
	client    AdvisoryClient
	allowlist map[string]bool
}

// NewAuditor takes the allowlist of packages never reported unused
// (framework packages load implicitly, without import statements).
func NewAuditor(client AdvisoryClient, allowlist []string) *Auditor {
	allow := make(map[string]bool, len(allowlist))
	for _, name := range allowlist {
		allow[name] = true
	}
	return &Auditor{client: client, allowlist: allow}
}

// UnusedPackages reports runtime dependencies with zero import sites.
// Dev dependencies are tooling and never expected in import statements.
func (a *Auditor) UnusedPackages(deps []PackageDependency) []output.Finding {
	var findings []output.Finding
	for _, dep := range deps {
		if dep.Section != SectionRuntime || dep.ImportSites > 0 || a.allowlist[dep.Name] {
			continue
		}
		findings = append(findings, output.Finding{
			Category:    output.CategoryUnusedPackage,
			Severity:    output.SeverityUnused,
			File:        "package.json",
			Description: fmt.Sprintf("package %q is declared but never imported", dep.Name),
		})
	}
	output.Sort(findings)
	return findings
}

// KnownVulnerabilities queries the advisory service for every manifest
// entry. The service is fallible I/O: the first failure degrades the whole
// audit to a single AuditUnavailable finding instead of aborting the run.
func (a *Auditor) KnownVulnerabilities(ctx context.Context, deps []PackageDependency) []output.Finding {
	if a.client == nil {
		return nil
	}

	var findings []output.Finding
	for _, dep := range deps {
		advisories, err := a.client.Advisories(ctx, dep.Name, cleanVersion(dep.Version))
		if err != nil {
			return append(findings, output.Finding{
				Category:    output.CategoryAuditUnavailable,
				Severity:    output.SeverityInfo,
				File:        "package.json",
				Description: fmt.Sprintf("advisory service unavailable: %v", err),
			})
		}
		for _, adv := range advisories {
			findings = append(findings, output.Finding{
				Category:    output.CategoryKnownVulnerability,
				Severity:    advisorySeverity(adv.Severity),
				File:        "package.json",
				Description: fmt.Sprintf("%s %s: %s (%s)", dep.Name, dep.Version, adv.Title, adv.ID),
			})
		}
	}
	output.Sort(findings)
	return findings
}

func advisorySeverity(s string) output.Severity {
	switch s {
	case "critical":
		return output.SeverityCritical
	case "high":
		return output.SeverityHigh
	case "medium", "moderate":
		return output.SeverityMedium
	}
	return output.SeverityInfo
}

// HTTPAdvisoryClient queries a remote advisory endpoint, rate-limited, and
// validates each response against the advisory schema before trusting it.
type HTTPAdvisoryClient struct {
	base    string
	client  *http.Client
	limiter *util.Limiter
}

func NewHTTPAdvisoryClient(base string, requestsPerSecond float64, timeout time.Duration) *HTTPAdvisoryClient {
	return &HTTPAdvisoryClient{
		base:    base,
		client:  &http.Client{Timeout: timeout},
		limiter: util.NewLimiter(requestsPerSecond, 1),
	}
}

func (c *HTTPAdvisoryClient) Advisories(ctx context.Context, name, version string) ([]Advisory, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/advisories/%s/%s", c.base, url.PathEscape(name), url.PathEscape(version))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// Unknown package: nothing on file, not an outage.
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxResponseBytes {
		return nil, fmt.Errorf("advisory response exceeds %d bytes", maxResponseBytes)
	}

	if err := validateAdvisoryPayload(data); err != nil {
		return nil, fmt.Errorf("advisory response for %s: %w", name, err)
	}

	var advisories []Advisory
	if err := json.Unmarshal(data, &advisories); err != nil {
		return nil, err
	}
	return advisories, nil
}
