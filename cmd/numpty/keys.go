package main

import (
	"fmt"

	"github.com/pconstr/numpty"
)

// KeysCmd prints the encoding of key names.
type KeysCmd struct {
	AppCursor bool     `name:"app-cursor" help:"Encode arrows as in application cursor mode."`
	Names     []string `arg:"" help:"Key names such as Enter, C-c, S-Left, F5 or ^x."`
}

func (c *KeysCmd) Run(a *app) error {
	for _, name := range c.Names {
		b, err := numpty.EncodeKey(name, c.AppCursor)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s\t%s\n", name, numpty.Quote(string(b)))
	}
	return nil
}
