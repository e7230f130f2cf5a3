package main

import "haxeboot/internal/cli"

func main() {
	cli.Execute()
}
