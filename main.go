package main

import "github.com/frahmantamala/travel-agency/cmd"

func main() {
	cmd.Execute()
}
