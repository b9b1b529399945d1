package main

import "github.com/lunarfall/swevals/internal/cli"

func main() {
	cli.Execute()
}
