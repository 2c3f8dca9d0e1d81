package commands

import (
	"fmt"

	"github.com/dotnet/docfx-sub027/internal/docset"
	"github.com/dotnet/docfx-sub027/internal/errors"
)

// ZonesCmd implements the 'zones' command.
type ZonesCmd struct {
	File string `arg:"" help:"Markdown file, relative to the docset"`
	JSON bool   `help:"Print the result as JSON"`
}

type zonesOutput struct {
	Path        string               `json:"path"`
	Monikers    []string             `json:"monikers"`
	Zones       []docset.ZoneReport  `json:"zones"`
	Diagnostics []*errors.Diagnostic `json:"diagnostics,omitempty"`
}

func (z *ZonesCmd) Run(g *Global, root *CLI) error {
	ds, _, err := root.openDocset(nil)
	if err != nil {
		return err
	}
	ctx, _ := newContext()

	f, diags, err := ds.ResolveFile(ctx, z.File)
	if err != nil {
		return err
	}

	if z.JSON {
		if err := writeJSON(g.Stdout, zonesOutput{Path: f.Path, Monikers: f.Monikers, Zones: f.Zones, Diagnostics: diags}); err != nil {
			return err
		}
		return root.checkStrict(diags)
	}

	fmt.Fprintf(g.Stdout, "%s: %s\n", f.Path, formatList(f.Monikers))
	for _, zone := range f.Zones {
		fmt.Fprintf(g.Stdout, "  lines %d-%d %q: %s\n", zone.Line, zone.EndLine, zone.Range, formatList(zone.Monikers))
	}
	writeDiagnostics(g.Stdout, diags)
	return root.checkStrict(diags)
}
