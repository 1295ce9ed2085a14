package main

import (
	"os"

	"greetr/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
