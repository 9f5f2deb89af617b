package main

import "github.com/globizora/api-service/cmd"

func main() {
	cmd.Execute()
}
