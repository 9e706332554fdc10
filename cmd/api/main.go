package main

import (
	"go.uber.org/fx"

	"github.com/zerobertocosta/Karibu/internal/app"
)

func main() {
	fx.New(app.Module).Run()
}
