package main

import "github.com/OpenTraceLab/OpenTracePins/cmd/otp/cmd"

func main() {
	cmd.Execute()
}
