package main

import "github.com/cdr2/pan/cmd/pan-cli/cmd"

func main() {
	cmd.Execute()
}
