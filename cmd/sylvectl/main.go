package main

import (
	"os"

	"sylvectl/cmd/sylvectl/cmd"
)

func main() {
	os.Exit(cmd.Execute(os.Args[1:], os.Stdout, os.Stderr, nil))
}
