package main

import (
	"github.com/autobrr/tqv/cmd"
)

func main() {
	cmd.Execute()
}
