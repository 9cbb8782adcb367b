package main

import "gas-market/cmd"

func main() {
	cmd.Execute()
}
