// Package descriptor patches generated build-project descriptor files.
//
// Descriptors are parsed into an order-preserving element tree, so nodes,
// attributes and comments that a patch does not target survive a rewrite.
package descriptor

import (
	"strings"

	"github.com/beevik/etree"
)

// EnsureChild returns the first direct child of parent with the given tag.
// If there is none, a new empty child is appended after the last element
// child, indented like its siblings, and returned.
func EnsureChild(parent *etree.Element, tag string) *etree.Element {
	if child := parent.SelectElement(tag); child != nil {
		return child
	}
	child := etree.NewElement(tag)
	appendIndented(parent, child)
	return child
}

// SetValue overwrites the text value of el, whatever it was before.
func SetValue(el *etree.Element, value string) {
	el.SetText(value)
}

// PatchDocument applies rule to every top-level section of doc whose
// serialized form contains all of rule.Markers. Returns the number of
// sections that matched.
func PatchDocument(doc *etree.Document, rule Rule) int {
	root := doc.Root()
	if root == nil {
		return 0
	}
	matched := 0
	for _, section := range root.ChildElements() {
		if !containsAll(serialize(section), rule.Markers) {
			continue
		}
		SetValue(EnsureChild(section, rule.Flag), rule.Value)
		matched++
	}
	return matched
}

func serialize(el *etree.Element) string {
	doc := etree.NewDocument()
	doc.WriteSettings.CanonicalAttrVal = true
	doc.WriteSettings.CanonicalText = true
	doc.SetRoot(el.Copy())
	s, err := doc.WriteToString()
	if err != nil {
		return ""
	}
	return s
}

func containsAll(s string, markers []string) bool {
	for _, m := range markers {
		if !strings.Contains(s, m) {
			return false
		}
	}
	return true
}

// appendIndented inserts child before the trailing whitespace of parent,
// reusing the whitespace that precedes the existing element children.
func appendIndented(parent, child *etree.Element) {
	n := len(parent.Child)
	if n == 0 {
		parent.AddChild(child)
		return
	}
	trailing, ok := parent.Child[n-1].(*etree.CharData)
	if !ok || !trailing.IsWhitespace() {
		parent.AddChild(child)
		return
	}

	indent := siblingIndent(parent)
	if indent == "" {
		indent = trailing.Data + "  "
	}
	parent.InsertChildAt(n-1, etree.NewText(indent))
	parent.InsertChildAt(n, child)
}

// siblingIndent returns the whitespace preceding the last element child of
// parent, or "" if no element child is preceded by whitespace.
func siblingIndent(parent *etree.Element) string {
	indent := ""
	for i := 1; i < len(parent.Child); i++ {
		if _, ok := parent.Child[i].(*etree.Element); !ok {
			continue
		}
		if cd, ok := parent.Child[i-1].(*etree.CharData); ok && cd.IsWhitespace() {
			indent = cd.Data
		}
	}
	return indent
}
