package main

import "github.com/ampactor/st-solguard/cmd"

func main() {
	cmd.Execute()
}
