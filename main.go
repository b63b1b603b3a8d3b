package main

import "nbkv/cmd"

func main() {
	cmd.Execute()
}
