package main

import "github.com/openmahjong/parlor/internal/cli"

func main() {
	cli.Execute()
}
