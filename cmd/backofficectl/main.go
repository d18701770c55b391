package main

import "github.com/spec-kit/backoffice/cmd/backofficectl/commands"

func main() {
	commands.Execute()
}
