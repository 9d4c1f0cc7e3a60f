package main

import (
	"context"
	"fmt"

	"github.com/a-h/conceptmap"
)

type VersionCommand struct {
}

func (c VersionCommand) Run(ctx context.Context) (err error) {
	fmt.Println(conceptmap.Version)
	return nil
}
