package main

import "github.com/vibast-solutions/ms-go-booking/cmd"

func main() {
	cmd.Execute()
}
