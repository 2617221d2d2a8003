package main

import "github.com/inkwell-ai/inkwell/cmd"

func main() {
	cmd.Execute()
}
