package main

import "github.com/BonFireWatch/proxflix/internal/cli"

func main() {
	cli.Execute()
}
