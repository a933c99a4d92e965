package main

import "github.com/statserve/statserve/cli"

func main() {
	cli.Execute()
}
