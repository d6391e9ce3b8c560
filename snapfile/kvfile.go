// Package snapfile persists named cache-operation recordings as a YAML
// key-value file that is safe to check into version control: entries are
// written in a stable order so re-saving an unchanged file is byte-identical.
package snapfile

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/goforj/cachesnap/snapcore"
)

var (
	createTempFile = os.CreateTemp
	renameFile     = os.Rename
)

// KVFile is the on-disk mapping of recording name to recording.
type KVFile struct {
	path    string
	records map[string]snapcore.Recording
}

// Load reads the file at path. A nonexistent or empty file yields an empty
// mapping, not an error.
func Load(path string) (*KVFile, error) {
	f := &KVFile{
		path:    path,
		records: make(map[string]snapcore.Recording),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return f, nil
		}
		return nil, err
	}

	var raw map[string][]map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for name, events := range raw {
		rec, err := decodeRecording(events)
		if err != nil {
			return nil, fmt.Errorf("parse %s: recording %q: %w", path, name, err)
		}
		f.records[name] = rec
	}
	return f, nil
}

// Path returns the backing file path.
func (f *KVFile) Path() string { return f.path }

// Len reports the number of stored recordings.
func (f *KVFile) Len() int { return len(f.records) }

// Names returns the stored recording names in sorted order.
func (f *KVFile) Names() []string {
	return sortedNames(f.records)
}

// Get returns the recording stored under name.
func (f *KVFile) Get(name string) (snapcore.Recording, bool) {
	rec, ok := f.records[name]
	return rec, ok
}

// SetAndSave stores recording under name and rewrites the whole file.
// The write goes to a temp file first and is renamed into place so a
// concurrent reader never observes a partial file.
func (f *KVFile) SetAndSave(name string, rec snapcore.Recording) error {
	f.records[name] = rec

	data, err := marshalRecords(f.records)
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := createTempFile(dir, filepath.Base(f.path)+".*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return renameFile(tmpPath, f.path)
}

// Render serializes a single recording the way it appears inside the file.
// The session uses it to diff a captured recording against a stored one.
func Render(rec snapcore.Recording) (string, error) {
	node := recordingNode(rec)
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func decodeRecording(events []map[string]any) (snapcore.Recording, error) {
	rec := make(snapcore.Recording, 0, len(events))
	for _, entry := range events {
		if len(entry) != 1 {
			return nil, fmt.Errorf("event entry must have exactly one key, got %d", len(entry))
		}
		for label, value := range entry {
			alias, op, err := snapcore.ParseLabel(label)
			if err != nil {
				return nil, err
			}
			ev := snapcore.Event{Alias: alias, Operation: op}
			switch v := value.(type) {
			case string:
				ev.Keys = []string{v}
			case []any:
				ev.Bulk = true
				ev.Keys = make([]string, 0, len(v))
				for _, item := range v {
					key, ok := item.(string)
					if !ok {
						return nil, fmt.Errorf("event %q: key list holds a %T, want string", label, item)
					}
					ev.Keys = append(ev.Keys, key)
				}
			default:
				return nil, fmt.Errorf("event %q: value is a %T, want string or string list", label, value)
			}
			rec = append(rec, ev)
		}
	}
	return rec, nil
}

func marshalRecords(records map[string]snapcore.Recording) ([]byte, error) {
	doc := &yaml.Node{Kind: yaml.MappingNode}
	for _, name := range sortedNames(records) {
		doc.Content = append(doc.Content,
			scalarNode(name),
			recordingNode(records[name]),
		)
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func recordingNode(rec snapcore.Recording) *yaml.Node {
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	for _, ev := range rec {
		entry := &yaml.Node{Kind: yaml.MappingNode}
		var value *yaml.Node
		if ev.Bulk {
			value = &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
			for _, key := range ev.Keys {
				value.Content = append(value.Content, scalarNode(key))
			}
		} else {
			key := ""
			if len(ev.Keys) > 0 {
				key = ev.Keys[0]
			}
			value = scalarNode(key)
		}
		entry.Content = append(entry.Content, scalarNode(ev.Label()), value)
		seq.Content = append(seq.Content, entry)
	}
	return seq
}

// scalarNode pins the !!str tag so keys whose text is YAML-ambiguous
// ("true", "on", "~", …) come out quoted and load back as strings.
func scalarNode(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

func sortedNames(records map[string]snapcore.Recording) []string {
	names := make([]string, 0, len(records))
	for name := range records {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
