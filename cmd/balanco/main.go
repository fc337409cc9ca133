package main

import "github.com/DrSkyle/balanco/cmd/balanco/commands"

func main() {
	commands.Execute()
}
