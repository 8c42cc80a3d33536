package assethook

import (
	"github.com/jward/assethook/internal/assets"
	"github.com/jward/assethook/internal/bootstrap"
	"github.com/jward/assethook/internal/descriptor"
	"github.com/jward/assethook/internal/dispatch"
	"github.com/jward/assethook/internal/store"
)

// Public aliases for the internal types that appear in the Hook API.

type Store = store.Store
type Asset = store.Asset

type Kind = assets.Kind
type Registry = assets.Registry
type Importer = assets.Importer
type Deleter = assets.Deleter

type ChangeSet = dispatch.ChangeSet
type Report = dispatch.Report
type HandlerError = dispatch.HandlerError

type BootstrapResult = bootstrap.Result
type Gating = bootstrap.Gating

type Rule = descriptor.Rule
type PatchReport = descriptor.Report

const (
	GateDirectory = bootstrap.GateDirectory
	GatePerFile   = bootstrap.GatePerFile
)

var (
	ErrInstallRootNotFound = bootstrap.ErrInstallRootNotFound
	ErrResourcesMissing    = bootstrap.ErrResourcesMissing
)
