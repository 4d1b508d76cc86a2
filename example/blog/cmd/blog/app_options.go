package main

import (
	"context"

	"go.uber.org/fx"

	database "github.com/sunkan/Atlas.Orm/pkg/atlas/adapter/database"
	local "github.com/sunkan/Atlas.Orm/pkg/atlas/adapter/storage/local"
	config "github.com/sunkan/Atlas.Orm/pkg/atlas/config"
	metrics "github.com/sunkan/Atlas.Orm/pkg/atlas/infrastructure/metrics"
	mapper "github.com/sunkan/Atlas.Orm/pkg/atlas/mapper"

	app "github.com/sunkan/Atlas.Orm/example/blog/internal/app"
)

// GetApplicationOptions builds the uber-fx options and returns them as a slice.
// This function must be defined before the fx.New call.
func GetApplicationOptions(appCtx context.Context, envFilePath string, embeddedConfig config.EmbeddedConfig) []fx.Option {
	var options []fx.Option

	options = append(options, fx.Supply(
		embeddedConfig,
		fx.Annotate(envFilePath, fx.ResultTags(`name:"envFilePath"`)),
		fx.Annotate(appCtx, fx.As(new(context.Context)), fx.ResultTags(`name:"appCtx"`)),
	))
	options = append(options, config.Module)
	options = append(options, database.Module)
	options = append(options, metrics.Module)
	options = append(options, local.Module)
	options = append(options, mapper.Module)
	options = append(options, fx.Provide(app.NewMetadataRegistry))
	options = append(options, fx.Invoke(fx.Annotate(startApplication, fx.ParamTags("", "", "", "", "", "", `name:"appCtx"`))))

	return options
}
