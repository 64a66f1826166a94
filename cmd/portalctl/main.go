package main

import (
	"io"
	"os"

	"github.com/alecthomas/kong"
)

// Environment carries the process streams into commands
type Environment struct {
	Stdout io.Writer
	Stderr io.Writer
}

type CLI struct {
	Config   string `default:"config.json" help:"Path to the JSON config file." type:"path"`
	LogLevel string `default:"info" env:"LOG_LEVEL" help:"Log level (debug, info, warn, error)."`

	Migrate           MigrateCmd           `cmd:"" help:"Apply pending database migrations."`
	CreateAdmin       CreateAdminCmd       `cmd:"" help:"Create an administrator account."`
	IssueCertificates IssueCertificatesCmd `cmd:"" help:"Issue certificates for completed matches that lack one."`
	ExportMatches     ExportMatchesCmd     `cmd:"" help:"Export matches as a spreadsheet."`
}

func newParser(cli *CLI, env *Environment) (*kong.Kong, error) {
	return kong.New(cli,
		kong.Name("portalctl"),
		kong.Description("Donation portal administration"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		kong.Writers(env.Stdout, env.Stderr),
	)
}

func main() {
	env := &Environment{Stdout: os.Stdout, Stderr: os.Stderr}
	cli := CLI{}

	parser, err := newParser(&cli, env)
	if err != nil {
		panic(err)
	}
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	err = ctx.Run(env, &cli)
	ctx.FatalIfErrorf(err)
}
