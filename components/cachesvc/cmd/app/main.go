// Command app boots the semantic response cache component: suggest, lookup,
// insert and invalidate behind an HTTP+JSON API, plus the background
// refresh worker that consolidates buffered inserts into the live index.
package main

import (
	"fmt"
	"os"

	"github.com/thirdway-labs/modelctl/common"
	"github.com/thirdway-labs/modelctl/common/mzap"
	"github.com/thirdway-labs/modelctl/components/cachesvc/internal/bootstrap"
)

func main() {
	common.InitLocalEnvConfig()

	logger := mzap.InitializeLogger()

	service, err := bootstrap.InitServersWithOptions(&bootstrap.Options{
		Logger: logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize cache service: %v\n", err)
		os.Exit(1)
	}

	service.Run()
}
