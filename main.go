package main

import (
	"github.com/prostore/storefront/cmd"
)

func main() {
	cmd.Start()
}
