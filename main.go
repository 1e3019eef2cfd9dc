package main

import "github.com/stuttgart-things/repofleet/cmd"

func main() {
	cmd.Execute()
}
