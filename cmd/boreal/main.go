package main

import (
	"fmt"
	"os"
)

func mainWithErr() error {
	return makeCommand().Execute()
}

func main() {
	err := mainWithErr()
	if err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}
}
