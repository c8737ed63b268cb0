package main

import "sporture-backend/cmd"

func main() {
	cmd.Run()
}
