// Command app boots the control plane component: catalog, identity,
// permission resolution, artifact storage, and job orchestration behind a
// single HTTP+JSON API.
package main

import (
	"fmt"
	"os"

	"github.com/thirdway-labs/modelctl/common"
	"github.com/thirdway-labs/modelctl/common/mzap"
	"github.com/thirdway-labs/modelctl/components/controlplane/internal/bootstrap"
)

func main() {
	common.InitLocalEnvConfig()

	logger := mzap.InitializeLogger()

	service, err := bootstrap.InitServersWithOptions(&bootstrap.Options{
		Logger: logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize control plane: %v\n", err)
		os.Exit(1)
	}

	service.Run()
}
