package main

import "github.com/basilisk-nexus/eventnexus/cmd"

func main() {
	cmd.Execute()
}
