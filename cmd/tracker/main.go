package main

import "github.com/nfrund/bosstracker/cmd/tracker/cmd"

func main() {
	cmd.Execute()
}
