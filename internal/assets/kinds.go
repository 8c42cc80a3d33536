// Package assets classifies changed paths into Cubism asset kinds and looks
// up the import and delete handlers registered for each kind.
package assets

import (
	"path/filepath"
	"strings"
)

// Kind names a family of assets that share import and delete handling.
type Kind string

const (
	KindModel       Kind = "model"
	KindMoc         Kind = "moc"
	KindMotion      Kind = "motion"
	KindExpression  Kind = "expression"
	KindPose        Kind = "pose"
	KindPhysics     Kind = "physics"
	KindUserData    Kind = "userdata"
	KindDisplayInfo Kind = "displayinfo"
)

// suffixToKind maps file name suffixes to kinds. Compound suffixes are
// matched before the plain extension.
var suffixToKind = map[string]Kind{
	".model3.json":    KindModel,
	".moc3":           KindMoc,
	".motion3.json":   KindMotion,
	".exp3.json":      KindExpression,
	".pose3.json":     KindPose,
	".physics3.json":  KindPhysics,
	".userdata3.json": KindUserData,
	".cdi3.json":      KindDisplayInfo,
}

// AllKinds returns every known kind.
func AllKinds() []Kind {
	return []Kind{
		KindModel, KindMoc, KindMotion, KindExpression,
		KindPose, KindPhysics, KindUserData, KindDisplayInfo,
	}
}

// KindForFile returns the kind for path based on its file name suffix.
// Returns ("", false) if the suffix is not recognized.
func KindForFile(path string) (Kind, bool) {
	name := strings.ToLower(filepath.Base(path))
	if i := strings.Index(name, "."); i >= 0 {
		// Try the longest suffix first: "a.model3.json" → ".model3.json".
		for j := i; j >= 0 && j < len(name); {
			if kind, ok := suffixToKind[name[j:]]; ok {
				return kind, true
			}
			next := strings.Index(name[j+1:], ".")
			if next < 0 {
				break
			}
			j += next + 1
		}
	}
	return "", false
}
