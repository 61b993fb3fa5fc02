package main

import (
	"github.com/tutils/tdice/cmd"
)

func main() {
	cmd.Execute()
}
