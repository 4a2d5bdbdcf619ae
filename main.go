package main

import "github.com/dotcommander/sitecms/cmd"

func main() {
	cmd.Execute()
}
