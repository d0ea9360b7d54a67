//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/scraper-sky/2d-scene-editor/internal/core/bridge"
	"github.com/scraper-sky/2d-scene-editor/internal/core/observability/log"
	"github.com/scraper-sky/2d-scene-editor/internal/relay"
)

func InitializeRelay(config relay.Config, logger *log.Logger) (*relay.Server, error) {
	wire.Build(RelaySet)
	return nil, nil
}

func InitializeEditor(config bridge.TransportConfig, logger *log.Logger) *Editor {
	wire.Build(EditorSet)
	return nil
}
