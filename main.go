package main

import "github.com/nsyszr/quakedb/cmd"

func main() {
	cmd.Execute()
}
