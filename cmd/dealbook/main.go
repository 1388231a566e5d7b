package main

import "github.com/rustyeddy/dealbook/internal/cli"

func main() {
	cli.Execute()
}
