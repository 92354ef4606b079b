package main

import "github.com/GoSim-25-26J-441/forward-optimizer/internal/cmd"

func main() {
	cmd.Execute()
}
