package main

import (
	"os"

	"github.com/Makepad-fr/dreams/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
