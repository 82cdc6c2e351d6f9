package main

import (
	"github.com/cinedex/cinedex/cmd"
)

func main() {
	cmd.Execute()
}
