package assets

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/yaml"
)

// mocMagic prefixes every compiled moc3 file.
var mocMagic = []byte("MOC3")

var utf8BOM = []byte("\xef\xbb\xbf")

// sniffExts are extensions whose content decides the kind when the suffix
// table has no entry.
var sniffExts = map[string]bool{
	".json":  true,
	".bytes": true,
}

// The YAML grammar parses JSON documents as flow mappings.
var (
	jsonGrammar     *sitter.Language
	jsonGrammarOnce sync.Once
)

func grammar() *sitter.Language {
	jsonGrammarOnce.Do(func() {
		jsonGrammar = yaml.GetLanguage()
	})
	return jsonGrammar
}

// TopLevelKeys parses a JSON (or YAML) document and returns the keys of its
// outermost mapping in document order. Returns nil when the document has no
// mapping.
func TopLevelKeys(ctx context.Context, src []byte) ([]string, error) {
	// Raw tabs cannot appear inside JSON strings, and the grammar rejects
	// them as indentation. Replacing them keeps byte offsets intact.
	src = bytes.ReplaceAll(src, []byte("\t"), []byte(" "))

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(grammar())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	mapping := firstMapping(tree.RootNode())
	if mapping == nil {
		return nil, nil
	}

	var keys []string
	count := int(mapping.NamedChildCount())
	for i := 0; i < count; i++ {
		pair := mapping.NamedChild(i)
		if pair.Type() != "flow_pair" && pair.Type() != "block_mapping_pair" {
			continue
		}
		key := pair.ChildByFieldName("key")
		if key == nil {
			continue
		}
		keys = append(keys, unquote(key.Content(src)))
	}
	return keys, nil
}

// firstMapping returns the first mapping node in pre-order.
func firstMapping(root *sitter.Node) *sitter.Node {
	stack := []*sitter.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.Type() == "flow_mapping" || n.Type() == "block_mapping" {
			return n
		}
		for i := int(n.NamedChildCount()) - 1; i >= 0; i-- {
			stack = append(stack, n.NamedChild(i))
		}
	}
	return nil
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

// signatureRules are checked in order; the first rule whose keys are all
// present decides the kind.
var signatureRules = []struct {
	keys []string
	kind Kind
}{
	{[]string{"FileReferences"}, KindModel},
	{[]string{"Curves"}, KindMotion},
	{[]string{"PhysicsSettings"}, KindPhysics},
	{[]string{"UserData"}, KindUserData},
	{[]string{"ParameterGroups"}, KindDisplayInfo},
	{[]string{"Parts"}, KindDisplayInfo},
	{[]string{"Groups"}, KindPose},
	{[]string{"Parameters"}, KindExpression},
}

// SniffKind classifies file content: the moc3 magic for binary models,
// otherwise the top-level keys of a Cubism JSON document.
func SniffKind(ctx context.Context, src []byte) (Kind, bool) {
	if bytes.HasPrefix(src, mocMagic) {
		return KindMoc, true
	}
	src = bytes.TrimPrefix(src, utf8BOM)
	trimmed := bytes.TrimSpace(src)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return "", false
	}
	keys, err := TopLevelKeys(ctx, src)
	if err != nil || len(keys) == 0 {
		return "", false
	}
	present := make(map[string]bool, len(keys))
	for _, k := range keys {
		present[k] = true
	}
	for _, rule := range signatureRules {
		matched := true
		for _, k := range rule.keys {
			if !present[k] {
				matched = false
				break
			}
		}
		if matched {
			return rule.kind, true
		}
	}
	return "", false
}
