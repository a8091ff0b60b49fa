package snapshot

import (
	"github.com/smallbiznis/versus/internal/snapshot/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("snapshot.archiver",
	fx.Provide(DefaultConfig),
	fx.Provide(repository.Provide),
	fx.Provide(NewArchiver),
)
