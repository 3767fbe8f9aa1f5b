package main

import (
	"github.com/pulsepoll/backend/cmd/app"
)

func main() {
	app.Run()
}
