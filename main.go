package main

import "github.com/williamleif/redditnetwork/cmd"

func main() {
	cmd.Execute()
}
