package binder

import (
	"path/filepath"
	"strings"

	"github.com/go-openapi/inflect"

	"starterkit/internal/composer"
	"starterkit/internal/kit"
	"starterkit/internal/logging"
	"starterkit/internal/paths"
)

// IdentifyOptions tunes how a provider's package and domain are derived.
type IdentifyOptions struct {
	// DomainsDir is the folder holding domains; its capitalized form is the
	// namespace segment marking one
	DomainsDir string
	// RootPackages are composer names treated as the host application
	RootPackages []string
	// MaxLevels bounds the upward composer.json search
	MaxLevels int
}

// DefaultIdentifyOptions returns the options used when none are configured.
func DefaultIdentifyOptions() IdentifyOptions {
	return IdentifyOptions{
		DomainsDir:   kit.DomainsDir,
		RootPackages: []string{"laravel/laravel"},
		MaxLevels:    paths.DefaultMaxLevels,
	}
}

// DomainFromType derives the domain name from a provider's class name: the
// segment after every Domains namespace segment, joined with dots.
// Acme\Shop\Domains\Billing\Domains\Tax\Providers\TaxServiceProvider
// yields "Billing.Tax".
func DomainFromType(typeName, domainsDir string) string {
	marker := inflect.Capitalize(domainsDir)
	segments := strings.Split(strings.Trim(typeName, `\`), `\`)

	var names []string
	// the last segment is the class itself
	for i := 0; i < len(segments)-2; i++ {
		if segments[i] == marker {
			names = append(names, segments[i+1])
			i++
		}
	}
	return strings.Join(names, ".")
}

// DomainPath turns a domain name into its path below a package root:
// "Billing.Tax" becomes domains/Billing/domains/Tax.
func DomainPath(domain, domainsDir string) string {
	if domain == "" {
		return ""
	}
	var parts []string
	for _, name := range strings.Split(domain, ".") {
		parts = append(parts, domainsDir, name)
	}
	return filepath.Join(parts...)
}

// searchDir is where the composer.json search starts: above the domain
// folder for domain providers, above the last src or app directory
// otherwise.
func searchDir(providerDir, domainPath string) string {
	if domainPath != "" {
		sep := string(filepath.Separator)
		if i := strings.LastIndex(providerDir+sep, sep+domainPath+sep); i >= 0 {
			return providerDir[:i]
		}
		return providerDir
	}

	for _, marker := range []string{"src", "app"} {
		dir := providerDir
		for {
			if filepath.Base(dir) == marker {
				return filepath.Dir(dir)
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}
	return providerDir
}

// Identify resolves a provider's package id, domain and root path from its
// declaring location and the nearest composer.json above it. Unset options
// take their DefaultIdentifyOptions values.
func Identify(p *Provider, opts IdentifyOptions, logger *logging.Logger) kit.ProviderRecord {
	if logger == nil {
		logger = logging.NewNop()
	}
	defaults := DefaultIdentifyOptions()
	if opts.DomainsDir == "" {
		opts.DomainsDir = defaults.DomainsDir
	}
	if len(opts.RootPackages) == 0 {
		opts.RootPackages = defaults.RootPackages
	}
	if opts.MaxLevels <= 0 {
		opts.MaxLevels = defaults.MaxLevels
	}

	domain := DomainFromType(p.TypeName, opts.DomainsDir)
	domainPath := DomainPath(domain, opts.DomainsDir)
	providerDir := paths.SourceDir(p.Location)
	start := searchDir(providerDir, domainPath)

	rec := kit.ProviderRecord{
		TypeName:   p.TypeName,
		DomainName: domain,
	}

	base := start
	if manifestPath, ok := composer.Find(start, opts.MaxLevels); ok {
		rec.ComposerPath = manifestPath
		base = filepath.Dir(manifestPath)

		m, err := composer.Read(manifestPath)
		if err != nil {
			logger.Warn("Unreadable composer.json, treating provider as host application", map[string]interface{}{
				"provider": p.TypeName,
				"path":     manifestPath,
				"error":    err.Error(),
			})
		} else if name := m.Name(); !isRootPackage(name, opts.RootPackages) {
			rec.PackageID = name
		}
	} else {
		logger.Debug("No composer.json above provider", map[string]interface{}{
			"provider": p.TypeName,
			"from":     start,
		})
	}

	rec.PackagePath = base
	if domainPath != "" {
		rec.PackagePath = filepath.Join(base, domainPath)
	}

	logger.Debug("Identified provider", map[string]interface{}{
		"provider": rec.TypeName,
		"package":  rec.PackageID,
		"domain":   rec.DomainName,
		"path":     rec.PackagePath,
	})
	return rec
}

func isRootPackage(name string, roots []string) bool {
	if name == "" {
		return true
	}
	for _, r := range roots {
		if name == r {
			return true
		}
	}
	return false
}
