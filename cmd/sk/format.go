package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"starterkit/internal/binder"
	"starterkit/internal/kit"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
)

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// formatJSON formats the response as JSON
func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

// formatHuman formats the response in human-readable format
func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *PathsResponseCLI:
		return formatPathsHuman(v)
	case *BootResponseCLI:
		return formatBootHuman(v)
	case *ProvidersResponseCLI:
		return formatProvidersHuman(v)
	case *CacheResponseCLI:
		return formatCacheHuman(v)
	case *HooksResponseCLI:
		return formatHooksHuman(v)
	default:
		// For unknown types, fall back to JSON
		return formatJSON(resp)
	}
}

func locationTitle(pkg, domain string) string {
	title := pkg
	if title == "" {
		title = "(application)"
	}
	if domain != "" {
		title += " [" + domain + "]"
	}
	return title
}

func formatPathsHuman(resp *PathsResponseCLI) (string, error) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Root: %s\n", resp.Root))
	b.WriteString(strings.Repeat("=", 60) + "\n")

	if len(resp.Locations) == 0 {
		b.WriteString("\nNo packages registered.\n")
	}
	for _, loc := range resp.Locations {
		b.WriteString(fmt.Sprintf("\n%s  %s\n", locationTitle(loc.Package, loc.Domain), loc.Path))
		for _, kind := range kit.TargetDirectories() {
			p, ok := loc.Directories[kind.String()]
			if !ok {
				continue
			}
			b.WriteString(fmt.Sprintf("  %-13s %s\n", kind.String(), p))
		}
		b.WriteString(fmt.Sprintf("  (%d files, %d classes)\n", loc.Files, loc.Classes))
	}

	if len(resp.Providers) > 0 {
		b.WriteString(fmt.Sprintf("\nProviders (%d):\n", len(resp.Providers)))
		for _, p := range resp.Providers {
			b.WriteString(fmt.Sprintf("  %s -> %s\n", p.Class, locationTitle(p.Package, p.Domain)))
		}
	}
	return b.String(), nil
}

func writeBindings(b *strings.Builder, title string, bindings []binder.Binding) {
	if len(bindings) == 0 {
		return
	}
	b.WriteString(fmt.Sprintf("\n%s (%d):\n", title, len(bindings)))
	for _, bd := range bindings {
		b.WriteString(fmt.Sprintf("  %s -> %s\n", bd.Resource, bd.Model))
	}
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString(fmt.Sprintf("\n%s (%d):\n", title, len(items)))
	for _, item := range items {
		b.WriteString("  " + item + "\n")
	}
}

func formatBootHuman(resp *BootResponseCLI) (string, error) {
	var b strings.Builder
	plan := resp.Plan

	b.WriteString(fmt.Sprintf("Boot plan for %s\n", resp.Root))
	b.WriteString(strings.Repeat("=", 60) + "\n")
	b.WriteString(fmt.Sprintf("%d providers, %d bindings, %d route files\n",
		len(resp.Providers), plan.Bindings(), len(plan.Routes)))

	writeList(&b, "Configs", plan.Configs)
	writeList(&b, "Helpers", plan.Helpers)
	writeList(&b, "Migrations", plan.Migrations)

	if len(plan.Translations) > 0 {
		b.WriteString(fmt.Sprintf("\nTranslations (%d):\n", len(plan.Translations)))
		for _, tr := range plan.Translations {
			ns := tr.Namespace
			if ns == "" {
				ns = "(default)"
			}
			b.WriteString(fmt.Sprintf("  %s: %s\n", ns, tr.Path))
		}
	}

	if len(plan.Routes) > 0 {
		b.WriteString(fmt.Sprintf("\nRoutes (%d):\n", len(plan.Routes)))
		for _, r := range plan.Routes {
			prefix := "/" + r.Group.Prefix
			b.WriteString(fmt.Sprintf("  %s  prefix=%s name=%q middleware=%s\n",
				r.File, prefix, r.Group.Name, strings.Join(r.Group.Middleware, ",")))
		}
	}

	writeBindings(&b, "Observers", plan.Observers)
	writeBindings(&b, "Policies", plan.Policies)
	writeBindings(&b, "Repositories", plan.Repositories)

	if len(plan.MorphMap) > 0 {
		b.WriteString(fmt.Sprintf("\nMorph map (%d aliases)\n", len(plan.MorphMap)))
	}
	for _, env := range plan.Env {
		b.WriteString(fmt.Sprintf("\nEnv block %q: %d vars\n", env.Title, len(env.Vars)))
	}

	if len(plan.Failures) > 0 {
		b.WriteString(fmt.Sprintf("\nStale bindings (%d), cache flushed:\n", len(plan.Failures)))
		for _, f := range plan.Failures {
			b.WriteString(fmt.Sprintf("  %s %s -> %s: %s\n", f.Kind, f.Resource, f.Model, f.Error))
		}
	}
	return b.String(), nil
}

func formatProvidersHuman(resp *ProvidersResponseCLI) (string, error) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Providers (%d, from %s):\n", len(resp.Providers), resp.Source))
	for _, p := range resp.Providers {
		b.WriteString(fmt.Sprintf("  %s\n    %s\n", p.Class, p.Location))
	}
	if resp.Written != "" {
		b.WriteString(fmt.Sprintf("\nWrote %s\n", resp.Written))
	}
	return b.String(), nil
}

func formatCacheHuman(resp *CacheResponseCLI) (string, error) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Cache driver: %s (tag %q)\n", resp.Driver, resp.Tag))
	if resp.Action == "clear" {
		if resp.Flushed {
			b.WriteString("Flushed.\n")
		} else {
			b.WriteString("Nothing flushed: the store does not support tags.\n")
		}
	}
	if resp.Action == "prune" {
		b.WriteString(fmt.Sprintf("Pruned %d expired entries.\n", resp.Pruned))
	}
	if resp.Stats != nil {
		b.WriteString(fmt.Sprintf("Entries: %d (%d compressed), %d bytes\n",
			resp.Stats.Entries, resp.Stats.Compressed, resp.Stats.Bytes))
	}
	return b.String(), nil
}

func formatHooksHuman(resp *HooksResponseCLI) (string, error) {
	var b strings.Builder

	b.WriteString(resp.Message + "\n")
	for _, name := range resp.Hooks {
		b.WriteString("  " + name + "\n")
	}
	return b.String(), nil
}
