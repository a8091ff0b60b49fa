package score

import (
	"github.com/smallbiznis/versus/internal/score/projection"
	"github.com/smallbiznis/versus/internal/score/repository"
	"github.com/smallbiznis/versus/internal/score/service"
	"go.uber.org/fx"
)

var Module = fx.Module("score.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Provide(projection.New),
	fx.Invoke(func(*projection.Projector) {}),
)
