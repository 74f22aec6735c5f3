// Command photosync runs the photosync API and its operator and client tools.
//
//	@title						photosync API
//	@version					1.0
//	@description				Accounts, bearer tokens and role-based access for the photosync photo-sharing platform.
//	@BasePath					/api
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/photosync/photosync/internal/cli"
)

func main() {
	if err := cli.Execute(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "photosync:", err)
		os.Exit(1)
	}
}
