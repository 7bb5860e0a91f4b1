//go:generate mockgen -destination=mock_contract_test.go -package=${GOPACKAGE} -source=contract.go
package profile

import (
	"context"

	"github.com/talentmatch/messaging-service/internal/model"
)

type DBRepo interface {
	UpsertProfile(ctx context.Context, profile model.Profile) error
}
