package docset

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/inful/mdfp"

	"github.com/dotnet/docfx-sub027/internal/errors"
	"github.com/dotnet/docfx-sub027/internal/frontmatter"
	"github.com/dotnet/docfx-sub027/internal/incremental"
	"github.com/dotnet/docfx-sub027/internal/logfields"
	"github.com/dotnet/docfx-sub027/internal/markdown"
	"github.com/dotnet/docfx-sub027/internal/metadata"
	"github.com/dotnet/docfx-sub027/internal/moniker"
	"github.com/dotnet/docfx-sub027/internal/observability"
	"github.com/dotnet/docfx-sub027/internal/resource"
)

// FileReport is the resolution of one file.
type FileReport struct {
	Path        string       `json:"path"`
	Monikers    moniker.List `json:"monikers"`
	Zones       []ZoneReport `json:"zones,omitempty"`
	Fingerprint string       `json:"fingerprint,omitempty"`
}

// ZoneReport is the resolution of one moniker zone.
type ZoneReport struct {
	Range    string       `json:"range"`
	Line     int          `json:"line"`
	EndLine  int          `json:"endLine"`
	Monikers moniker.List `json:"monikers"`
}

type fileResult struct {
	report  FileReport
	diags   []*errors.Diagnostic
	missing bool
	err     error
}

type fileContent struct {
	data []byte
	err  error
}

func (d *Docset) resolveFile(ctx context.Context, file string) fileResult {
	d.stats.Value(ctx).recomputed.Add(1)

	pr := d.provider.Value(ctx)
	if pr.err != nil {
		return fileResult{err: pr.err}
	}

	log := observability.Logger(ctx, d.logger)
	abs := filepath.Join(d.root, filepath.FromSlash(file))
	content := incremental.Read(ctx,
		func() fileContent {
			data, err := os.ReadFile(abs)
			return fileContent{data: data, err: err}
		},
		func() resource.Token { return resource.FileToken(abs) })
	if content.err != nil {
		log.Warn("Skipping unreadable file", logfields.File(file), logfields.Error(content.err))
		return fileResult{missing: true}
	}

	// The provider caches per file; this file changed or the provider is new.
	p := pr.provider
	p.Invalidate(file)
	diags, monikers := p.GetFileLevelMonikers(file)

	report := FileReport{Path: file, Monikers: monikers}

	doc, err := frontmatter.Split(content.data)
	if err != nil {
		// Reported by the metadata provider; treat the whole file as body.
		doc = frontmatter.Document{Body: content.data, BodyLine: 1}
	}
	report.Fingerprint = mdfp.CalculateFingerprintFromParts(
		strings.TrimSuffix(string(doc.Frontmatter), "\n"), string(doc.Body))

	if metadata.IsMarkdown(file) {
		zones, zoneDiags := markdown.ExtractMonikerZones(doc.Body, markdown.Options{File: file, FirstLine: doc.BodyLine})
		diags = append(diags, zoneDiags...)
		for _, z := range zones {
			diag, list := p.GetZoneLevelMonikersAt(file, moniker.SourceValue{Value: z.Range, Source: z.Source(file)})
			if diag != nil {
				diags = append(diags, diag)
			}
			report.Zones = append(report.Zones, ZoneReport{
				Range:    z.Range,
				Line:     z.Line,
				EndLine:  z.EndLine,
				Monikers: list,
			})
		}
	}

	log.Debug("Resolved file",
		logfields.File(file),
		logfields.Monikers(monikers),
		logfields.Count(len(report.Zones)))
	return fileResult{report: report, diags: diags}
}
