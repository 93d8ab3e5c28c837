package main

import (
	"os"

	"github.com/tanpawarit/Chative-Finance-Simulator/cmd"
	_ "github.com/tanpawarit/Chative-Finance-Simulator/pkg/logger/autoload"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
