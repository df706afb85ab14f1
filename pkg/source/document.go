package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/panbanda/fraglint/pkg/preprocess"
)

// ErrUnsupportedDocument is returned for files that are not JSON or YAML.
var ErrUnsupportedDocument = errors.New("unsupported document type")

// Format is a host document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// String returns the string representation.
func (f Format) String() string {
	return string(f)
}

// FormatFor detects the document format from the file extension.
func FormatFor(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, true
	case ".yaml", ".yml":
		return FormatYAML, true
	}
	return "", false
}

// Guard field keys.
const (
	excludeKey = "exclude"
	renderKey  = "render"
)

// Document is a parsed host file and the fragments found in it, in
// document order.
type Document struct {
	Path      string
	Format    Format
	Content   []byte
	Fragments []Fragment
	guards    map[string]*Guard
}

// Guard returns the guard of the container holding f, or nil.
func (d *Document) Guard(f Fragment) *Guard {
	return d.guards[f.Path]
}

// Load reads and parses the document at path.
func Load(src ContentSource, path string) (*Document, error) {
	content, err := src.Read(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(path, content)
}

// Parse decodes content according to the extension of path and extracts
// every string value holding a script delimiter.
func Parse(path string, content []byte) (*Document, error) {
	format, ok := FormatFor(path)
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedDocument)
	}

	var (
		root *hostNode
		err  error
	)
	switch format {
	case FormatJSON:
		root, err = decodeJSON(content)
	case FormatYAML:
		root, err = decodeYAML(content)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	doc := &Document{Path: path, Format: format, Content: content, guards: make(map[string]*Guard)}
	b := &builder{doc: doc}
	if format == FormatJSON {
		b.locator = NewLocator(content)
	}
	if root != nil {
		b.walk(root, "", nil)
	}
	return doc, nil
}

type nodeKind int

const (
	nodeScalar nodeKind = iota
	nodeString
	nodeObject
	nodeArray
)

// hostNode is an ordered, format-neutral view of a decoded document.
type hostNode struct {
	kind     nodeKind
	key      string
	index    int
	value    string
	line     int  // known source line, 0 when unknown
	block    bool // block scalar: content starts on the next line
	children []*hostNode
}

type builder struct {
	doc     *Document
	locator *Locator
}

func childPath(parent string, n *hostNode) string {
	if n.key == "" && n.index >= 0 {
		return parent + "[" + strconv.Itoa(n.index) + "]"
	}
	if parent == "" {
		return n.key
	}
	return parent + "." + n.key
}

// guardOf returns the guard field of an object node, if any.
func guardOf(n *hostNode, path string) (*Guard, *hostNode) {
	for _, c := range n.children {
		if c.kind != nodeString {
			continue
		}
		switch c.key {
		case excludeKey:
			return &Guard{Kind: GuardExclude, Condition: c.value, Path: childPath(path, c)}, c
		case renderKey:
			return &Guard{Kind: GuardRender, Condition: c.value, Path: childPath(path, c)}, c
		}
	}
	return nil, nil
}

func (b *builder) walk(n *hostNode, path string, guard *Guard) {
	switch n.kind {
	case nodeString:
		b.emit(n, path, guard)
	case nodeObject:
		g, field := guardOf(n, path)
		for _, c := range n.children {
			cg := guard
			switch {
			case c == field:
				cg = nil
			case g != nil:
				cg = g
			}
			b.walk(c, childPath(path, c), cg)
		}
	case nodeArray:
		for _, c := range n.children {
			b.walk(c, childPath(path, c), guard)
		}
	}
}

func (b *builder) emit(n *hostNode, path string, guard *Guard) {
	if !strings.Contains(n.value, preprocess.StartDelim) {
		return
	}
	line := n.line
	if n.block {
		line++
	}
	if b.locator != nil {
		line = b.locator.Locate(n.value)
	}
	label := n.key
	if label == "" {
		label = path
	}
	f := Fragment{
		Path:      path,
		Text:      n.value,
		Label:     label,
		StartLine: max(line, 1),
		Escaped:   looksEscaped(n.value),
	}
	b.doc.Fragments = append(b.doc.Fragments, f)
	if guard != nil {
		b.doc.guards[path] = guard
	}
}

func decodeJSON(content []byte) (*hostNode, error) {
	dec := json.NewDecoder(bytes.NewReader(content))
	dec.UseNumber()
	root, err := readJSON(dec, 0)
	if err != nil {
		return nil, err
	}
	root.index = -1
	return root, nil
}

const maxDocumentDepth = 256

func readJSON(dec *json.Decoder, depth int) (*hostNode, error) {
	if depth > maxDocumentDepth {
		return nil, errors.New("document nested too deeply")
	}
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			n := &hostNode{kind: nodeObject, index: -1}
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, _ := kt.(string)
				child, err := readJSON(dec, depth+1)
				if err != nil {
					return nil, err
				}
				child.key, child.index = key, -1
				n.children = append(n.children, child)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return n, nil
		case '[':
			n := &hostNode{kind: nodeArray, index: -1}
			for i := 0; dec.More(); i++ {
				child, err := readJSON(dec, depth+1)
				if err != nil {
					return nil, err
				}
				child.index = i
				n.children = append(n.children, child)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return n, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %q", v)
	case string:
		return &hostNode{kind: nodeString, value: v, index: -1}, nil
	}
	return &hostNode{kind: nodeScalar, index: -1}, nil
}

func decodeYAML(content []byte) (*hostNode, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil
	}
	root := convertYAML(doc.Content[0], 0)
	root.index = -1
	return root, nil
}

func convertYAML(y *yaml.Node, depth int) *hostNode {
	for y.Kind == yaml.AliasNode && y.Alias != nil && depth < maxDocumentDepth {
		y = y.Alias
		depth++
	}
	n := &hostNode{kind: nodeScalar, index: -1, line: y.Line}
	if depth > maxDocumentDepth {
		return n
	}
	switch y.Kind {
	case yaml.MappingNode:
		n.kind = nodeObject
		for i := 0; i+1 < len(y.Content); i += 2 {
			child := convertYAML(y.Content[i+1], depth+1)
			child.key, child.index = y.Content[i].Value, -1
			n.children = append(n.children, child)
		}
	case yaml.SequenceNode:
		n.kind = nodeArray
		for i, c := range y.Content {
			child := convertYAML(c, depth+1)
			child.index = i
			n.children = append(n.children, child)
		}
	case yaml.ScalarNode:
		if y.ShortTag() == "!!str" {
			n.kind = nodeString
			n.value = y.Value
			n.block = y.Style&(yaml.LiteralStyle|yaml.FoldedStyle) != 0
		}
	}
	return n
}
