package command

import (
	"fmt"

	"github.com/thirdway-labs/modelctl/common"
	cn "github.com/thirdway-labs/modelctl/common/constant"
	"github.com/thirdway-labs/modelctl/common/mmodel"
)

func newInvalidJobTransitionError(from, to mmodel.TrainState) error {
	return common.UnprocessableOperationError{
		EntityType: "Job",
		Title:      "Invalid Job Transition",
		Code:       cn.ErrInvalidJobTransition.Error(),
		Message:    fmt.Sprintf("cannot transition a job from %q to %q", from, to),
	}
}
