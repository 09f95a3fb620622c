package main

import "github.com/derickschaefer/liftlog/cmd"

func main() {
	cmd.Execute()
}
