// Command app boots a single deployed-replica component: the write
// coordinator and its read surface (search/predict) for one deployed model.
package main

import (
	"fmt"
	"os"

	"github.com/thirdway-labs/modelctl/common"
	"github.com/thirdway-labs/modelctl/common/mzap"
	"github.com/thirdway-labs/modelctl/components/replica/internal/bootstrap"
)

func main() {
	common.InitLocalEnvConfig()

	logger := mzap.InitializeLogger()

	service, err := bootstrap.InitServersWithOptions(&bootstrap.Options{
		Logger: logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize replica: %v\n", err)
		os.Exit(1)
	}

	service.Run()
}
