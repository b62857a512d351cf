package main

import (
	"os"

	"github.com/tankyu/diary/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
