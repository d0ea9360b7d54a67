package injector

import (
	"github.com/google/wire"

	"github.com/scraper-sky/2d-scene-editor/internal/core/bridge"
	"github.com/scraper-sky/2d-scene-editor/internal/core/events"
	"github.com/scraper-sky/2d-scene-editor/internal/core/observability/log"
	"github.com/scraper-sky/2d-scene-editor/internal/core/scene"
	"github.com/scraper-sky/2d-scene-editor/internal/relay"
)

// Editor is the client side of the system: the scene store, the bridge that
// submits instructions for it and the bus that reports its changes.
type Editor struct {
	Store  *scene.Store
	Bridge *bridge.Bridge
	Events events.Bus
}

func ProvideStore(bus events.Bus, logger log.Log) *scene.Store {
	return scene.NewStore(scene.WithEvents(bus), scene.WithLogger(logger))
}

func ProvideBridge(store *scene.Store, transport bridge.Transport, logger log.Log) *bridge.Bridge {
	return bridge.New(store, transport, bridge.WithLogger(logger))
}

var logSet = wire.NewSet(
	wire.Bind(new(log.Log), new(*log.Logger)),
)

var RelaySet = wire.NewSet(
	logSet,
	relay.NewOpenAIGenerator,
	wire.Bind(new(relay.Generator), new(*relay.OpenAIGenerator)),
	relay.NewServer,
)

var EditorSet = wire.NewSet(
	logSet,
	events.New,
	ProvideStore,
	bridge.NewHTTPTransport,
	wire.Bind(new(bridge.Transport), new(*bridge.HTTPTransport)),
	ProvideBridge,
	wire.Struct(new(Editor), "*"),
)
