package main

import "github.com/user/e8audit/cmd"

func main() {
	cmd.Execute()
}
