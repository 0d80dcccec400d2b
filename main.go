package main

import "github.com/sadopc/tripguide/internal/cli"

func main() {
	cli.Execute()
}
