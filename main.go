package main

import "github.com/robalobadob/crossword-rooms/internal/cli"

func main() {
	cli.Execute()
}
