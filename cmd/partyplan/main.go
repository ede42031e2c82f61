package main

import (
	"os"

	"horse.fit/partyplan/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
