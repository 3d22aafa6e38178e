package main

import "field-trip-backend/cmd"

func main() {
	cmd.Run()
}
