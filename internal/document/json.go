package document

import (
	"encoding/json"
	"fmt"
	"sort"
)

// The wire format is the Slate-style value the contract backend stores:
// an array of element objects, each {"type": ..., "children": [...]},
// where leaf children are {"text": ...} objects whose remaining keys are
// marks. Toggle marks serialize as booleans, annotations as objects, and
// any key this version does not recognize round-trips as an unknown mark.
//
// Decoding canonicalizes mark order: known kinds in registry order first,
// then unknown kinds sorted by key. JSON objects carry no usable key order,
// so this keeps load deterministic.

// Parse decodes a wire-format document and normalizes it. Malformed input
// returns an error; deciding to fall back to the canonical empty document
// is the caller's policy, not the codec's.
func Parse(data []byte) (*Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	d.Normalize()
	return &d, nil
}

// MarshalJSON encodes the document as the wire-format block array.
func (d *Document) MarshalJSON() ([]byte, error) {
	out := make([]json.RawMessage, 0, len(d.Blocks))
	for i := range d.Blocks {
		enc, err := encodeBlock(&d.Blocks[i])
		if err != nil {
			return nil, err
		}
		out = append(out, enc)
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the wire-format block array.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("document: decode value: %w", err)
	}
	blocks := make([]Block, 0, len(raw))
	for i, r := range raw {
		b, err := decodeBlock(r)
		if err != nil {
			return fmt.Errorf("document: block %d: %w", i, err)
		}
		blocks = append(blocks, b)
	}
	d.Blocks = blocks
	return nil
}

func encodeBlock(b *Block) (json.RawMessage, error) {
	children := make([]json.RawMessage, 0, len(b.Blocks)+len(b.Runs))
	if b.Kind.IsContainer() {
		for i := range b.Blocks {
			enc, err := encodeBlock(&b.Blocks[i])
			if err != nil {
				return nil, err
			}
			children = append(children, enc)
		}
	} else {
		for _, run := range b.Runs {
			enc, err := encodeRun(run)
			if err != nil {
				return nil, err
			}
			children = append(children, enc)
		}
	}
	return json.Marshal(struct {
		Type     BlockKind         `json:"type"`
		Children []json.RawMessage `json:"children"`
	}{Type: b.Kind, Children: children})
}

func decodeBlock(data json.RawMessage) (Block, error) {
	var node struct {
		Type     BlockKind         `json:"type"`
		Children []json.RawMessage `json:"children"`
	}
	if err := json.Unmarshal(data, &node); err != nil {
		return Block{}, err
	}
	if node.Type == "" {
		node.Type = Paragraph
	}
	b := Block{Kind: node.Type}
	for i, child := range node.Children {
		if b.Kind.IsContainer() {
			if isLeafNode(child) {
				// A leaf directly under a list wraps into an item.
				run, err := decodeRun(child)
				if err != nil {
					return Block{}, fmt.Errorf("child %d: %w", i, err)
				}
				b.Blocks = append(b.Blocks, Block{Kind: ListItem, Runs: []Run{run}})
				continue
			}
			item, err := decodeBlock(child)
			if err != nil {
				return Block{}, fmt.Errorf("child %d: %w", i, err)
			}
			b.Blocks = append(b.Blocks, item)
			continue
		}
		run, err := decodeRun(child)
		if err != nil {
			return Block{}, fmt.Errorf("child %d: %w", i, err)
		}
		b.Runs = append(b.Runs, run)
	}
	return b, nil
}

// isLeafNode distinguishes a leaf child ({"text": ...}) from a nested
// element ({"type": ..., "children": [...]}).
func isLeafNode(data json.RawMessage) bool {
	var node struct {
		Text *string `json:"text"`
	}
	if err := json.Unmarshal(data, &node); err != nil {
		return false
	}
	return node.Text != nil
}

func encodeRun(run Run) (json.RawMessage, error) {
	obj := map[string]json.RawMessage{}
	text, err := json.Marshal(run.Text)
	if err != nil {
		return nil, err
	}
	obj["text"] = text
	for _, m := range run.Marks {
		var payload json.RawMessage
		switch {
		case m.Bookmark != nil:
			payload, err = json.Marshal(m.Bookmark)
		case m.Issue != nil:
			payload, err = json.Marshal(m.Issue)
		case m.Raw != nil:
			payload = append(json.RawMessage(nil), m.Raw...)
		default:
			payload = json.RawMessage("true")
		}
		if err != nil {
			return nil, err
		}
		obj[string(m.Kind)] = payload
	}
	return json.Marshal(obj)
}

func decodeRun(data json.RawMessage) (Run, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return Run{}, err
	}
	rawText, ok := obj["text"]
	if !ok {
		return Run{}, fmt.Errorf("leaf without text key")
	}
	var run Run
	if err := json.Unmarshal(rawText, &run.Text); err != nil {
		return Run{}, fmt.Errorf("leaf text: %w", err)
	}
	delete(obj, "text")

	// Known kinds first, in registry order.
	for _, kind := range KnownKinds() {
		payload, ok := obj[string(kind)]
		if !ok {
			continue
		}
		delete(obj, string(kind))
		mark, err := decodeMark(kind, payload)
		if err != nil {
			return Run{}, err
		}
		if mark != nil {
			run.Marks = append(run.Marks, *mark)
		}
	}

	// Unknown kinds, sorted for determinism, preserved verbatim.
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		run.Marks = append(run.Marks, Mark{
			Kind: MarkKind(k),
			Raw:  append(json.RawMessage(nil), obj[k]...),
		})
	}
	return run, nil
}

func decodeMark(kind MarkKind, payload json.RawMessage) (*Mark, error) {
	switch kind {
	case MarkBookmark:
		var data BookmarkData
		if err := json.Unmarshal(payload, &data); err != nil {
			return nil, fmt.Errorf("bookmark payload: %w", err)
		}
		m := BookmarkMark(data)
		return &m, nil
	case MarkIssue:
		var data IssueData
		if err := json.Unmarshal(payload, &data); err != nil {
			return nil, fmt.Errorf("issue payload: %w", err)
		}
		m := IssueMark(data)
		return &m, nil
	}
	// Toggle kinds: present only when true.
	var on bool
	if err := json.Unmarshal(payload, &on); err != nil {
		return nil, fmt.Errorf("%s payload: %w", kind, err)
	}
	if !on {
		return nil, nil
	}
	return &Mark{Kind: kind}, nil
}
