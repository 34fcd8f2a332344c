package main

import "github.com/hermes-assist/hermes/cmd"

func main() {
	cmd.Execute()
}
