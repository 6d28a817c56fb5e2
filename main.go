package main

import (
	"github.com/osc-library/pmcdash/cmd"
)

func main() {
	cmd.Execute()
}
