package main

import "go-rolledit/cli"

func main() {
	cli.Execute()
}
