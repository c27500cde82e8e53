package main

import (
	"fmt"
	"os"

	"fjacquet/cascade-categorizer/cmd/batch"
	"fjacquet/cascade-categorizer/cmd/categorize"
	"fjacquet/cascade-categorizer/cmd/patterns"
	"fjacquet/cascade-categorizer/cmd/root"
)

func init() {
	root.Init()

	root.Cmd.AddCommand(categorize.Cmd)
	root.Cmd.AddCommand(batch.Cmd)
	root.Cmd.AddCommand(patterns.Cmd)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
