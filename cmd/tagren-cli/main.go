package main

import "tagren/cmd/tagren-cli/cmd"

func main() {
	cmd.Execute()
}
