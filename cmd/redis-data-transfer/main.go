package main

import (
	"os"

	"github.com/EDITD/redis-data-transfer/internal/cli"
)

func main() {
	code := cli.Execute(os.Args[1:])
	os.Exit(code)
}
