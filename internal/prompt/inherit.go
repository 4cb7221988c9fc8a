package prompt

import (
	"fmt"
	"strings"
)

// rawPrompt is a parsed, not yet resolved prompt definition.
type rawPrompt struct {
	props              map[string]any
	identifier         string
	options            any
	textInputs         any
	filePath           string
	isTemporary        bool
	temporaryDirSource string
	children           []*rawPrompt
}

// newRawPrompt splits an authored object into properties and structural
// fields. It returns nil when the object has no title.
func newRawPrompt(obj map[string]any, filePath string) *rawPrompt {
	title, _ := obj[PropTitle].(string)
	if strings.TrimSpace(title) == "" {
		return nil
	}

	raw := &rawPrompt{
		props:    make(map[string]any, len(obj)),
		filePath: filePath,
	}
	for key, value := range obj {
		switch key {
		case PropSubprompts:
			items, _ := value.([]any)
			for _, item := range items {
				m, ok := asMap(item)
				if !ok {
					continue
				}
				if child := newRawPrompt(m, filePath); child != nil {
					raw.children = append(raw.children, child)
				}
			}
		case PropIdentifier:
			if value != nil {
				raw.identifier = strings.TrimSpace(fmt.Sprint(value))
			}
		case PropOptions:
			raw.options = value
		case PropTextInputs:
			raw.textInputs = value
		case PropPath, PropPinned, PropFilePath:
		case PropActions:
			raw.props[key] = toStringList(value)
		default:
			raw.props[key] = value
		}
	}
	return raw
}

// tag marks the prompt and its children as coming from a temporary source.
func (r *rawPrompt) tag(tempRoot string) {
	if tempRoot == "" {
		return
	}
	r.isTemporary = true
	r.temporaryDirSource = tempRoot
	for _, child := range r.children {
		child.tag(tempRoot)
	}
}

// mergeRaws folds prompts that share an authored identifier into the first
// definition in load order. The first definition keeps its properties; later
// ones only fill in missing properties and append their subprompts, which
// keep the file they were loaded from. Subprompt lists are merged the same
// way at every level.
func mergeRaws(raws []*rawPrompt) []*rawPrompt {
	out := make([]*rawPrompt, 0, len(raws))
	byID := make(map[string]*rawPrompt, len(raws))
	for _, raw := range raws {
		if raw.identifier != "" {
			if first, ok := byID[raw.identifier]; ok {
				first.absorb(raw)
				continue
			}
			byID[raw.identifier] = raw
		}
		out = append(out, raw)
	}
	for _, raw := range out {
		raw.children = mergeRaws(raw.children)
	}
	return out
}

func (r *rawPrompt) absorb(other *rawPrompt) {
	for k, v := range other.props {
		if _, ok := r.props[k]; !ok {
			r.props[k] = v
		}
	}
	if r.options == nil {
		r.options = other.options
	}
	if r.textInputs == nil {
		r.textInputs = other.textInputs
	}
	r.children = append(r.children, other.children...)
}

// resolveNode builds a new node from the overlay, the parent's inheritable
// properties and the raw prompt's own properties, later layers winning.
// Neither the parent nor the raw prompt is modified.
func resolveNode(raw *rawPrompt, parent *Node, overlay map[string]any) *Node {
	props := make(map[string]any, len(overlay)+len(raw.props))
	for k, v := range overlay {
		if !nonInheritable[k] {
			props[k] = v
		}
	}
	if parent != nil {
		for k, v := range parent.Props {
			if !nonInheritable[k] {
				props[k] = v
			}
		}
	}
	for k, v := range raw.props {
		props[k] = v
	}

	node := &Node{
		FilePath:           raw.filePath,
		IsTemporary:        raw.isTemporary,
		TemporaryDirSource: raw.temporaryDirSource,
		Options:            raw.options,
		TextInputs:         raw.textInputs,
		Props:              props,
	}

	node.Identifier = raw.identifier
	if node.Identifier == "" {
		node.Identifier = GenerateIdentifier(node.Title(), node.Content())
	}

	node.Path = node.Title()
	if parent != nil {
		node.Path = parent.Path + " / " + node.Title()
	}

	if len(raw.children) > 0 {
		node.Subprompts = make([]*Node, 0, len(raw.children))
		for _, child := range raw.children {
			node.Subprompts = append(node.Subprompts, resolveNode(child, node, overlay))
		}
	}
	return node
}

// resolveTree merges and resolves every top-level raw prompt.
func resolveTree(raws []*rawPrompt, overlay map[string]any) []*Node {
	raws = mergeRaws(raws)
	nodes := make([]*Node, 0, len(raws))
	for _, raw := range raws {
		nodes = append(nodes, resolveNode(raw, nil, overlay))
	}
	return nodes
}
