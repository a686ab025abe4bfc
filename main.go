package main

import "go-drink-stand/cli"

func main() {
	cli.Execute()
}
