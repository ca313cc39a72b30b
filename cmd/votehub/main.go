// Command votehub serves the user-management API of the voting app.
package main

import (
	"context"
	"log"

	"github.com/dalemusser/votehub/internal/app/bootstrap"
	"github.com/dalemusser/waffle/app"
)

func main() {
	if err := app.Run(context.Background(), bootstrap.Hooks); err != nil {
		log.Fatal(err)
	}
}
