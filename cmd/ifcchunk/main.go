package main

import "github.com/dbsmedya/ifcchunk/cmd/ifcchunk/cmd"

func main() {
	cmd.Execute()
}
