package main

import "github.com/lifei6671/tsi18n/cmd/tsi18n/cli"

func main() {
	cli.Execute()
}
