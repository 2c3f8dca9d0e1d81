package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dotnet/docfx-sub027/internal/docset"
	"github.com/dotnet/docfx-sub027/internal/errors"
)

// MonikersCmd implements the 'monikers' command.
type MonikersCmd struct {
	Files []string `arg:"" optional:"" help:"Files to resolve, relative to the docset; all content files when omitted"`
	JSON  bool     `help:"Print the result as JSON"`
}

func (m *MonikersCmd) Run(g *Global, root *CLI) error {
	ds, _, err := root.openDocset(nil)
	if err != nil {
		return err
	}
	ctx, _ := newContext()

	var report *docset.Report
	if len(m.Files) == 0 {
		report, err = ds.Resolve(ctx)
		if err != nil {
			return err
		}
	} else {
		report = &docset.Report{}
		for _, file := range m.Files {
			f, diags, err := ds.ResolveFile(ctx, file)
			if err != nil {
				return err
			}
			report.Files = append(report.Files, f)
			report.Diagnostics = append(report.Diagnostics, diags...)
		}
	}

	if m.JSON {
		if err := writeJSON(g.Stdout, report); err != nil {
			return err
		}
	} else {
		for _, f := range report.Files {
			fmt.Fprintf(g.Stdout, "%s: %s\n", f.Path, formatList(f.Monikers))
		}
		writeDiagnostics(g.Stdout, report.Diagnostics)
	}
	return root.checkStrict(report.Diagnostics)
}

func formatList(list []string) string {
	if len(list) == 0 {
		return "(none)"
	}
	return strings.Join(list, ", ")
}

func writeDiagnostics(w io.Writer, diags []*errors.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintln(w, d.Error())
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.InternalError("failed to encode output", err)
	}
	return nil
}
