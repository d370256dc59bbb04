package main

import "github.com/cortexlinux/cortex-patch-go/cmd"

func main() {
	cmd.Execute()
}
