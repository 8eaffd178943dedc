package main

import "github.com/lowaak/tabata-timer/internal/cli"

func main() {
	cli.Execute()
}
