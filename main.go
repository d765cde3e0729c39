package main

import "github.com/ctks/admin-console/cmd"

func main() {
	cmd.Execute()
}
