//go:generate mockgen -destination=mock_contract_test.go -package=${GOPACKAGE} -source=contract.go
package bridge

import (
	"context"

	"github.com/talentmatch/messaging-service/internal/model"
	"github.com/talentmatch/messaging-service/internal/pkg/changefeed"
)

type Feed interface {
	Subscribe(ctx context.Context, filter model.Filter) (changefeed.Subscription, error)
}

type Publisher interface {
	Broadcast(ctx context.Context, channels []string, event model.ChangeEvent) error
}
