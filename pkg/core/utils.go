package core

import (
	"fmt"

	"github.com/google/uuid"
)

func generateDeploymentID() string {
	return fmt.Sprintf("deployment.%s", uuid.New().String())
}
