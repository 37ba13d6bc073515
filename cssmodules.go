package cssmodules

import (
	"context"
	"html/template"

	icm "github.com/sjc5/cssmodules/internal/cssmodules"
)

type Config = icm.Config
type DevConfig = icm.DevConfig
type BundleOptions = icm.BundleOptions
type BuildResult = icm.BuildResult

type Load = icm.Load
type Tokens = icm.Tokens
type StyleRecord = icm.StyleRecord
type FetchFunc = icm.FetchFunc

type Registry = icm.Registry
type Pipeline = icm.Pipeline
type Backend = icm.Backend
type Preparer = icm.Preparer
type Finalizer = icm.Finalizer
type LiveBackend = icm.LiveBackend
type LiveOptions = icm.LiveOptions
type BundleBackend = icm.BundleBackend
type Container = icm.Container
type Document = icm.Document
type ResourceStore = icm.ResourceStore
type EmbedStrategy = icm.EmbedStrategy
type Capabilities = icm.Capabilities
type Minifier = icm.Minifier
type Transformer = icm.Transformer
type ModuleTransformer = icm.ModuleTransformer
type FileFetcher = icm.FileFetcher
type DevServer = icm.DevServer
type Logger = icm.Logger

type FetchTransformError = icm.FetchTransformError
type CyclicDependencyError = icm.CyclicDependencyError
type ResourceMaterializationError = icm.ResourceMaterializationError

const StrategyInline = icm.StrategyInline
const StrategyExternal = icm.StrategyExternal

var ErrEmptyName = icm.ErrEmptyName
var ErrSelfDependency = icm.ErrSelfDependency
var ErrAlreadyFinalized = icm.ErrAlreadyFinalized

var NewStyleRecord = icm.NewStyleRecord
var NewRegistry = icm.NewRegistry
var WithEvictHook = icm.WithEvictHook
var NewPipeline = icm.NewPipeline
var WithDefaultFetch = icm.WithDefaultFetch
var WithLogger = icm.WithLogger
var SortDependencies = icm.SortDependencies
var NewLiveBackend = icm.NewLiveBackend
var NewBundleBackend = icm.NewBundleBackend
var NewDocument = icm.NewDocument
var NewResourceStore = icm.NewResourceStore
var NewCSSMinifier = icm.NewCSSMinifier
var NewFileFetcher = icm.NewFileFetcher
var DetectStrategy = icm.DetectStrategy
var ParseStrategy = icm.ParseStrategy
var EscapeScriptString = icm.EscapeScriptString
var LoadConfig = icm.LoadConfig
var GetIsDev = icm.GetIsDev

// CSSModules is the entry point for hosts that drive everything from a
// Config.
type CSSModules struct {
	Config *icm.Config
}

func New(config *icm.Config) *CSSModules {
	return &CSSModules{Config: config}
}

func (m CSSModules) Build(ctx context.Context) (*icm.BuildResult, error) {
	return m.Config.Build(ctx)
}

func (m CSSModules) StartDev(ctx context.Context) error {
	return m.Config.StartDev(ctx)
}

func (m CSSModules) NewDevServer() (*icm.DevServer, error) {
	return m.Config.NewDevServer()
}

// GetClientScript returns the dev client script element for a dev server
// on port, or an empty string outside dev mode.
func (m CSSModules) GetClientScript(port int) template.HTML {
	return template.HTML(icm.GetClientScriptTag(port))
}

func (m CSSModules) GetContainerElementID() string {
	return icm.ContainerElementID
}
