package main

import (
	"os"

	"textgend/internal/cli"
)

func main() {
	os.Exit(cli.Main(os.Args[1:]))
}
