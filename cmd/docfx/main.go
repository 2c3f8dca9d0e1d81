package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/dotnet/docfx-sub027/cmd/docfx/commands"
	"github.com/dotnet/docfx-sub027/internal/errors"
	"github.com/dotnet/docfx-sub027/internal/version"
)

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("docfx"),
		kong.Description("Resolve documentation versions (monikers) for a docset."),
		kong.Vars{"version": version.String()},
		kong.UsageOnError(),
	)

	if err := ctx.Run(&commands.Global{Stdout: os.Stdout}); err != nil {
		errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}
