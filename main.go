package main

import "github.com/laityts/iptest/cmd"

func main() {
	cmd.Execute()
}
