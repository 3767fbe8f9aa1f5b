package server

import "github.com/urfave/cli/v2"

func Command() *cli.Command {
	return &cli.Command{
		Name:  "server",
		Usage: "start the API server and batch workers",
		Action: func(c *cli.Context) error {
			Run()
			return nil
		},
	}
}
