package main

import "github.com/aakash670/smart-attendance/cmd"

func main() {
	cmd.Execute()
}
