package main

import (
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/meigma/sevenz/cmd/sevenz/command"
)

const (
	name = "sevenz"
)

var (
	version = "dev"
	build   = "unknown"
)

func main() {
	parser := flags.NewNamedParser(name, flags.Default)

	parser.AddCommand("add", command.AddDescription, command.AddHelp,
		&command.Add{})

	parser.AddCommand("version", command.VersionDescription, command.VersionHelp,
		&command.Version{
			Name:    name,
			Version: version,
			Build:   build,
		})

	_, err := parser.Parse()
	if err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrCommandRequired {
			parser.WriteHelp(os.Stdout)
		}

		os.Exit(1)
	}
}
