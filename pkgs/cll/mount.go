// Package cll provides utilities for building CLI applications with urfave/cli/v3.
package cll

import "github.com/urfave/cli/v3"

// Registerable is implemented by subcommands that mount themselves onto a
// root command.
type Registerable interface {
	Register(*cli.Command) *cli.Command
}

// Register applies each Registerable to root in order.
//
//	root := &cli.Command{Name: "vmboot"}
//	root = cll.Register(root, initCmd, specCmd)
func Register(root *cli.Command, subs ...Registerable) *cli.Command {
	for _, s := range subs {
		root = s.Register(root)
	}

	return root
}

// EnvWithPrefix returns a function that builds environment variable sources
// sharing a prefix.
//
//	env := cll.EnvWithPrefix("VMBOOT_")
//	flag := &cli.StringFlag{
//		Name:    "config",
//		Sources: env("CONFIG", "CONFIG_PATH"), // reads VMBOOT_CONFIG, VMBOOT_CONFIG_PATH
//	}
func EnvWithPrefix(prefix string) func(strs ...string) cli.ValueSourceChain {
	return func(strs ...string) cli.ValueSourceChain {
		withPrefix := make([]string, len(strs))

		for i, str := range strs {
			withPrefix[i] = prefix + str
		}

		return cli.EnvVars(withPrefix...)
	}
}
