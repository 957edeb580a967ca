package main

import "github.com/MeKo-Tech/keva/cmd/keva/cmd"

func main() {
	cmd.Execute()
}
