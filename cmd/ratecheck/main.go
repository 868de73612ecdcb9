package main

import "github.com/rustyeddy/ratecheck/internal/cli"

func main() {
	cli.Execute()
}
