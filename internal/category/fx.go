package category

import (
	"github.com/smallbiznis/versus/internal/category/repository"
	"github.com/smallbiznis/versus/internal/category/service"
	"go.uber.org/fx"
)

var Module = fx.Module("category.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
