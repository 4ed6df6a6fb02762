package main

import "github.com/user/sdsec/cmd"

func main() {
	cmd.Execute()
}
