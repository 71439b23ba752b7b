package main

import "mnemograph/cmd"

func main() {
	cmd.Execute()
}
